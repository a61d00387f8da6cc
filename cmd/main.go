package main

import (
	"log"
	"os"

	"github.com/ManouchehrRasoulli/fsbrowser/pkg"
	"github.com/ManouchehrRasoulli/fsbrowser/pkg/logger"
	"github.com/spf13/cobra"
)

var (
	configFile string
	host       string
	port       int
	root       string
)

var rootCmd = &cobra.Command{
	Use:   "fsbrowser",
	Short: "Browse a few folders of this machine from any device on the local network",
	Long: `fsbrowser serves a small web ui listing a fixed set of folders under one base
directory and pushes live change notifications to every open browser tab.

Without a sub command it runs the server, same as "fsbrowser serve".`,
	SilenceUsage: true,
	RunE:         runServe,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "specify configuration file for service.")
	rootCmd.PersistentFlags().StringVar(&root, "root", "", "base directory holding the browsable folders.")

	for _, c := range []*cobra.Command{rootCmd, serveCmd} {
		c.Flags().StringVar(&host, "host", "", "address to listen on (default from config, 0.0.0.0).")
		c.Flags().IntVarP(&port, "port", "p", 0, "port to listen on (default from config, 8080).")
	}

	rootCmd.AddCommand(serveCmd, generateCmd, tailCmd)
}

func newLogger() (*log.Logger, *logger.ColorLogger) {
	lg := log.New(os.Stdout, "fsbrowser --> ", 1|4)
	return lg, logger.NewColorLogger(lg)
}

// loadConfig reads the configuration file, applies the flags that were set on
// cmd and validates the result.
func loadConfig(cmd *cobra.Command) (*pkg.Config, error) {
	cfg, err := pkg.ReadConfig(configFile)
	if err != nil {
		return nil, err
	}

	if f := cmd.Flags().Lookup("host"); f != nil && f.Changed {
		cfg.Host = host
	}
	if f := cmd.Flags().Lookup("port"); f != nil && f.Changed {
		cfg.Port = port
	}
	if f := cmd.Flags().Lookup("root"); f != nil && f.Changed {
		cfg.Root = root
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
