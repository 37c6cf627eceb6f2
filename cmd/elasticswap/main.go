// elasticswap evaluates elastic ensemble-sizing controllers on data streams.
package main

import (
	"os"

	"github.com/diegomarron/ElasticSwapRandomForest/cmd/elasticswap/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
