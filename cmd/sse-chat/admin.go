package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/nachoal/sse-chat-go/backend"
)

var (
	mainModel   string
	visionModel string
	assistModel string

	saveCmd = &cobra.Command{
		Use:   "save ID",
		Short: "Ask the backend to persist a conversation",
		Args:  cobra.ExactArgs(1),
		RunE:  runSave,
	}

	archiveAllCmd = &cobra.Command{
		Use:   "archive-all",
		Short: "Archive every stored conversation",
		Args:  cobra.NoArgs,
		RunE:  runArchiveAll,
	}

	configureCmd = &cobra.Command{
		Use:   "configure",
		Short: "Choose the backend models",
		Args:  cobra.NoArgs,
		RunE:  runConfigure,
	}
)

func init() {
	configureCmd.Flags().StringVar(&mainModel, "main-model", "", "Model that answers")
	configureCmd.Flags().StringVar(&visionModel, "vision-model", "", "Model that reads images")
	configureCmd.Flags().StringVar(&assistModel, "assist-model", "", "Model used for titles and tools")
}

func runSave(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || id <= 0 {
		return fmt.Errorf("invalid conversation id %q", args[0])
	}
	client, err := newClient()
	if err != nil {
		return err
	}
	if err := client.Save(cmd.Context(), id); err != nil {
		return err
	}
	fmt.Printf("Saved chat %d\n", id)
	return nil
}

func runArchiveAll(cmd *cobra.Command, _ []string) error {
	client, err := newClient()
	if err != nil {
		return err
	}
	if err := client.ArchiveAll(cmd.Context()); err != nil {
		return err
	}
	fmt.Println("Archived all conversations")
	return nil
}

func runConfigure(cmd *cobra.Command, _ []string) error {
	mc := backend.ModelConfig{
		MainModel:   mainModel,
		VisionModel: visionModel,
		AssistModel: assistModel,
	}
	if mc.IsEmpty() {
		return errors.New("nothing to configure: pass --main-model, --vision-model or --assist-model")
	}
	client, err := newClient()
	if err != nil {
		return err
	}
	if err := client.Configure(cmd.Context(), mc); err != nil {
		return err
	}
	fmt.Println("Backend models updated")
	return nil
}
