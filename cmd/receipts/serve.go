package main

import (
	"fmt"
	"net"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Veraticus/the-receipts-must-flow/internal/certs"
	"github.com/Veraticus/the-receipts-must-flow/internal/common"
	"github.com/Veraticus/the-receipts-must-flow/internal/config"
	"github.com/Veraticus/the-receipts-must-flow/internal/server"
)

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the pipeline and the tools over HTTP",
		Long: `Start the HTTP bridge:

  POST   /ocr                 upload a receipt image (multipart field "file")
  GET    /tools               list tools
  POST   /tools/{name}        call a tool with a JSON object of string arguments
  GET    /categories          list categories
  POST   /categories          add a category {"name": "..."}
  DELETE /categories/{name}   remove a category
  GET    /healthz, /metrics

With --tls the bridge serves HTTPS using a self-signed certificate kept in
the workspace; point clients at its certs/bridge.crt. The server shuts down
gracefully on Ctrl+C.`,
		RunE: runServe,
	}

	cmd.Flags().String("addr", "", "listen address (default 127.0.0.1:8000)")
	cmd.Flags().String("upload-dir", "", "directory for temporary uploads (default: system temp dir)")
	cmd.Flags().Bool("tls", false, "serve HTTPS with a self-signed certificate")
	_ = viper.BindPFlag("server.addr", cmd.Flags().Lookup("addr"))
	_ = viper.BindPFlag("server.upload_dir", cmd.Flags().Lookup("upload-dir"))
	_ = viper.BindPFlag("server.tls", cmd.Flags().Lookup("tls"))

	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.LoadServerConfig()
	if err != nil {
		return configError("The HTTP server", err)
	}

	a, err := newApp(cmd.Context(), needs{llm: true, sheets: true})
	if err != nil {
		return err
	}
	defer a.Close()

	if viper.GetBool("server.tls") {
		host, _, splitErr := net.SplitHostPort(cfg.Addr)
		if splitErr != nil {
			return fmt.Errorf("invalid server address %q: %w", cfg.Addr, splitErr)
		}
		mgr := certs.NewFileManager(filepath.Join(a.workspace.Dir, "certs"), host)
		if cfg.TLS, err = mgr.TLSConfig(); err != nil {
			return fmt.Errorf("failed to prepare TLS certificate: %w", err)
		}
		common.LogInfo("Serving HTTPS", common.Fields{"certificate": mgr.CertFile()})
	}

	handler := server.NewHandler(a.engine, a.tools, cfg, a.logger)
	srv := server.New(cfg, handler, a.metrics, a.logger)

	common.LogInfo("Starting HTTP bridge", common.Fields{
		"addr":       cfg.Addr,
		"provider":   a.llm.Provider(),
		"categories": a.workspace.CategoriesPath,
		"dedupe":     a.workspace.Dedupe,
	})

	return srv.Run(cmd.Context())
}
