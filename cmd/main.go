package main

import (
	"github.com/mfs-exporter/cmd/exporter"
)

func main() {
	exporter.Execute()
}
