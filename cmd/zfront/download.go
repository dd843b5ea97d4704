package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/zerfoo/zfront/pkg/downloader"
)

func newDownloadCmd() *cobra.Command {
	var outputDir string
	var token string

	cmd := &cobra.Command{
		Use:   "download <org/model>",
		Short: "Download an ONNX model from HuggingFace Hub",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			if token == "" {
				token = os.Getenv("HF_TOKEN")
			}
			opts := []downloader.Option{}
			if token != "" {
				opts = append(opts, downloader.WithToken(token))
			}
			result, err := downloader.New(opts...).Download(args[0], outputDir)
			if err != nil {
				return err
			}
			slog.Info("model downloaded",
				"model", result.ModelPath,
				"tokenizer_files", len(result.TokenizerPaths))
			return nil
		},
	}
	cmd.Flags().StringVarP(&outputDir, "output-dir", "d", ".", "directory to download into")
	cmd.Flags().StringVar(&token, "api-key", "", "HuggingFace access token (defaults to HF_TOKEN)")
	return cmd
}
