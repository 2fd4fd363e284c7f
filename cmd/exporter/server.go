package exporter

import (
	"github.com/spf13/cobra"
)

func initServerFlags(root *cobra.Command) {
	f := root.Flags()

	f.IntP("port", "p", defaultCfg.Server.Port, "-> Port serving /metrics")
	f.String("listen-host", defaultCfg.Server.Host, "-> Address to listen on")
	f.Duration("server.read-timeout", defaultCfg.Server.ReadTimeout, "-> Read timeout duration")
	f.Duration("server.write-timeout", defaultCfg.Server.WriteTimeout, "-> Write timeout duration")
	f.Duration("server.idle-timeout", defaultCfg.Server.IdleTimeout, "-> Idle connection timeout duration")
}

func initCollectorFlags(root *cobra.Command) {
	f := root.Flags()

	f.Bool("host-metrics", defaultCfg.Collectors.Host.Enable, "-> Also export load and CPU usage of this host")
	f.Bool("collectors.host.per-core", defaultCfg.Collectors.Host.PerCore, "-> Report host CPU usage per core")
}
