// Package buildinfo exposes version data injected at link time:
//
//	go build -ldflags "-X github.com/gatepass/gatepass/internal/buildinfo.Version=v1.2.0"
package buildinfo

import (
	"fmt"
	"io"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	Version = "N/A"
	Commit  = "N/A"
	Date    = "N/A"
)

// PrintBuildData writes the build banner shown at startup.
func PrintBuildData(w io.Writer) {
	fmt.Fprintf(w, "Build version: %s\n", Version)
	fmt.Fprintf(w, "Build date: %s\n", Date)
	fmt.Fprintf(w, "Build commit: %s\n", Commit)
}

// Register publishes gatepass_build_info{version,commit} = 1 on reg.
func Register(reg prometheus.Registerer) error {
	g := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "gatepass_build_info",
		Help: "Build information of the gatepass binary.",
	}, []string{"version", "commit"})
	if err := reg.Register(g); err != nil {
		return err
	}
	g.WithLabelValues(Version, Commit).Set(1)
	return nil
}
