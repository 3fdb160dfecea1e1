// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"go.uber.org/zap"

	"github.com/yudatun/pt-box/orchestrator"
)

func main() {
	os.Exit(run())
}

// run returns the process exit code: 0 on success, 1 on a
// validation/layout/IO failure, 2 on an argument-parsing error.
func run() int {
	var (
		verbose          = flag.Bool("v", false, "verbose logging")
		xmlPath          = flag.String("xml", "", "path to the declarative partition table XML")
		outDir           = flag.String("out", "", "output directory for the generated artifacts")
		bootCodePath     = flag.String("bootcode", "", "path to a raw MBR boot code blob (440 or 446 bytes)")
		sequentialGUID   = flag.Bool("sequential-guid", false, "assign GPT unique GUIDs in declaration order instead of randomly")
		all128Partitions = flag.Bool("all-128-partitions", false, "force the GPT header's entry count to 128")
	)

	flag.BoolVar(verbose, "verbose", false, "verbose logging (same as -v)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: %s -xml FILE -out DIR [flags]\n\n", os.Args[0])
		flag.PrintDefaults()
	}

	flag.Parse()

	if *xmlPath == "" || *outDir == "" {
		flag.Usage()

		return 2
	}

	logger := zap.NewNop()

	if *verbose {
		var err error

		logger, err = zap.NewDevelopment()
		if err != nil {
			log.Fatalf("build logger: %s", err)
		}
	}

	defer logger.Sync() //nolint:errcheck

	xmlFile, err := os.Open(*xmlPath)
	if err != nil {
		log.Printf("open %q: %s", *xmlPath, err)

		return 1
	}
	defer xmlFile.Close() //nolint:errcheck

	var bootCode []byte

	if *bootCodePath != "" {
		bootCode, err = os.ReadFile(*bootCodePath)
		if err != nil {
			log.Printf("read boot code %q: %s", *bootCodePath, err)

			return 1
		}
	}

	opts := orchestrator.NewOptions(
		orchestrator.WithLogger(logger),
		orchestrator.WithSequentialGUID(*sequentialGUID),
		orchestrator.WithAll128Entries(*all128Partitions),
		orchestrator.WithBootCode(bootCode),
	)

	names, err := orchestrator.Run(xmlFile, *outDir, opts)
	if err != nil {
		log.Printf("generate partition table: %s", err)

		return 1
	}

	for _, name := range names {
		log.Printf("wrote %s", name)
	}

	return 0
}
