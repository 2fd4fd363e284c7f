package exporter

import (
	"github.com/spf13/cobra"

	"github.com/mfs-exporter/pkg/flagutil"
)

func initMooseFSFlags(root *cobra.Command) {
	f := root.Flags()

	f.StringP("host", "H", defaultCfg.MooseFS.Host, "-> MooseFS master host")
	f.Int("master-port", defaultCfg.MooseFS.Port, "-> MooseFS master port")
	f.String("mfscli", defaultCfg.MooseFS.CLIPath, "-> Path of the mfscli binary")

	var interval, timeout = defaultCfg.MooseFS.Interval, defaultCfg.MooseFS.Timeout
	flagutil.SecondsVarP(f, &interval, "interval", "i", interval, "-> Collection interval, seconds or a duration such as 30s")
	flagutil.SecondsVarP(f, &timeout, "timeout", "", timeout, "-> Timeout of a single mfscli call")
}
