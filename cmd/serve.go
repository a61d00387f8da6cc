package main

import (
	"context"
	"fmt"
	"net"
	"os/signal"
	"syscall"

	"github.com/ManouchehrRasoulli/fsbrowser/internal"
	"github.com/ManouchehrRasoulli/fsbrowser/pkg/filehandler"
	"github.com/ManouchehrRasoulli/fsbrowser/pkg/hub"
	"github.com/ManouchehrRasoulli/fsbrowser/pkg/server"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the file browser server",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	lg, clg := newLogger()
	clg.Successf("start fsbrowser : with config file %q", configFile)

	cfg, err := loadConfig(cmd)
	if err != nil {
		clg.Failf("error fsbrowser : got error %v on reading configuration", err)
		return err
	}
	clg.Infof("config fsbrowser : address: %s, root: %s, folders: %v", cfg.Address(), cfg.Root, cfg.Folders)

	lister, err := internal.NewLister(cfg.Root, lg)
	if err != nil {
		clg.Failf("server error : got error %v on resolving root %s !", err, cfg.Root)
		return err
	}

	assets, err := filehandler.NewHandler(cfg.StaticDir(), lg)
	if err != nil {
		clg.Failf("server error : got error %v on static directory !", err)
		return err
	}

	registry := hub.NewRegistry(lg)

	watch := internal.NewWatcher(internal.WithLogger(lg), internal.WithStopTimeout(cfg.StopTimeout))
	if err := watch.Start(lister.Roots(cfg.Folders), registry); err != nil {
		clg.Failf("server error : got error %v on watcher !", err)
		return err
	}
	defer watch.Stop()

	srv := server.NewServer(cfg, lister, assets, registry, lg)
	if err := srv.Listen(); err != nil {
		clg.Failf("server error : got error %v listening on %s !!", err, cfg.Address())
		return err
	}

	clg.Successf("server started, listening on %s", cfg.Address())
	clg.Infof("from this machine:   http://127.0.0.1:%d", cfg.Port)
	if ip := localIP(); ip != "127.0.0.1" {
		clg.Infof("from the local net: http://%s:%d", ip, cfg.Port)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errc := make(chan error, 1)
	go func() {
		errc <- srv.Run()
	}()

	select {
	case <-ctx.Done():
	case err := <-errc:
		if err != nil {
			clg.Failf("server error : got error %v running http server !!", err)
			return err
		}
	}

	if err := watch.Stop(); err != nil {
		clg.Warnf("server : %v", err)
	}

	shutdown, cancel := context.WithTimeout(context.Background(), cfg.StopTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdown); err != nil {
		clg.Warnf("server : shutdown, %v", err)
	}

	clg.Successf("server closed.")
	return nil
}

// localIP is the address other LAN devices reach this machine on. Dialing udp
// sends no packets, it only picks the outbound interface.
func localIP() string {
	conn, err := net.Dial("udp", "8.8.8.8:80")
	if err != nil {
		return "127.0.0.1"
	}
	defer conn.Close()

	addr, ok := conn.LocalAddr().(*net.UDPAddr)
	if !ok {
		return "127.0.0.1"
	}
	return fmt.Sprint(addr.IP)
}
