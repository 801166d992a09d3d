// Command hookd runs the multi-tenant hook-module HTTP/HTTPS daemon.
package main

import (
	"flag"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/golang/glog"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/riverhook/hookd/cmn/cos"
	"github.com/riverhook/hookd/config"
	"github.com/riverhook/hookd/hookd"
)

var cli struct {
	configPath string
	confCustom string
	usage      bool
}

func init() {
	flag.StringVar(&cli.configPath, "config", "", "config filename: JSON file with the server configuration")
	flag.StringVar(&cli.confCustom, "config_custom", "",
		"\"key1=value1,key2=value2\" formatted string to override selected config entries")
	flag.BoolVar(&cli.usage, "h", false, "show usage and exit")
}

const usecli = `
   Usage:
        hookd -config=</path/to/config.json> [-config_custom="basedir=/srv/hooks,safe_hooks=true"]`

func main() {
	defer glog.Flush()
	flag.Parse()

	if cli.usage || len(os.Args[1:]) == 0 {
		flag.Usage()
		cos.Exitf(usecli)
	}
	if cli.configPath == "" {
		cos.ExitLogf("missing -config flag pointing to the configuration file\n")
	}

	cfg, err := config.Load(cli.configPath)
	if err != nil {
		cos.ExitLogf("%v", err)
	}

	if cli.confCustom != "" {
		toUpdate := &config.ToUpdate{}
		if err := toUpdate.FillFromKVS(strings.Split(cli.confCustom, ",")); err != nil {
			cos.ExitLogf("%v", err)
		}
		toUpdate.Apply(cfg)
		if err := cfg.Finalize(); err != nil {
			cos.ExitLogf("config_custom produced an invalid config: %v", err)
		}
		// Persist the merged config back to disk so a restart without
		// -config_custom still picks up the override (§9 "Supplemented
		// features": config hot-validation on custom override).
		if err := config.Save(cli.configPath, cfg); err != nil {
			glog.Warningf("config_custom applied but not persisted: %v", err)
		}
	}

	srv, err := hookd.New(cfg)
	if err != nil {
		cos.ExitLogf("%v", err)
	}
	srv.MustRegister(prometheus.DefaultRegisterer)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		glog.Infof("received %v, shutting down", sig)
		srv.Stop(nil)
	}()

	glog.Infof("hookd starting: basedir=%s addrs=%v ports=%v", cfg.Basedir, cfg.Addrs, cfg.Ports)
	if err := srv.Run(); err != nil {
		glog.Errorf("hookd terminated with error: %v", err)
		os.Exit(1)
	}
	glog.Infoln("hookd terminated OK")
}
