package cli

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/m-mizutani/drover/pkg/cli/config"
	"github.com/m-mizutani/drover/pkg/scan"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

func cmdScan() *cli.Command {
	return &cli.Command{
		Name:  "scan",
		Usage: "Search and inspect step logs and other large files",
		Commands: []*cli.Command{
			cmdScanGrep(),
			cmdScanPeek(),
			cmdScanHash(),
		},
	}
}

func cmdScanGrep() *cli.Command {
	var (
		dataCfg    config.Data
		around     int64
		maxMatches int64
		bufferSize string
		forceGzip  bool
	)

	flags := append([]cli.Flag{
		&cli.Int64Flag{
			Name:        "around",
			Aliases:     []string{"a"},
			Usage:       "Context bytes shown on each side of a match",
			Value:       int64(scan.DefaultAround),
			Destination: &around,
		},
		&cli.Int64Flag{
			Name:        "max-matches",
			Aliases:     []string{"m"},
			Usage:       "Stop after this many matches per file (0 is unlimited)",
			Destination: &maxMatches,
		},
		&cli.StringFlag{
			Name:        "buffer-size",
			Aliases:     []string{"b"},
			Usage:       "Read chunk size, e.g. 512K or 8M",
			Destination: &bufferSize,
		},
		&cli.BoolFlag{
			Name:        "force-gzip",
			Usage:       "Decompress as gzip regardless of the file extension",
			Destination: &forceGzip,
		},
	}, dataCfg.Flags()...)

	return &cli.Command{
		Name:      "grep",
		Usage:     "Search files for a byte sequence",
		ArgsUsage: "<needle> [path...]",
		Flags:     flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			needle := c.Args().First()
			if needle == "" {
				return goerr.New("needle is required")
			}

			paths := c.Args().Tail()
			if len(paths) == 0 {
				if !dataCfg.Enabled() {
					return goerr.New("no paths given and data directory is not configured")
				}
				if _, err := os.Stat(dataCfg.LogDir()); os.IsNotExist(err) {
					return goerr.New("no step logs found", goerr.V("dir", dataCfg.LogDir()))
				}
				paths = []string{dataCfg.LogDir()}
			}

			files, err := scan.WalkFiles(paths)
			if err != nil {
				return err
			}
			if len(files) == 0 {
				return goerr.New("no files to scan")
			}

			opts := []scan.Option{
				scan.WithAround(int(around)),
				scan.WithMaxMatches(int(maxMatches)),
			}
			if bufferSize != "" {
				n, err := scan.ParseByteSize(bufferSize)
				if err != nil {
					return err
				}
				opts = append(opts, scan.WithBufferSize(n))
			}
			scanner := scan.New(opts...)

			total := 0
			for _, path := range files {
				rc, err := scan.Open(path, forceGzip)
				if err != nil {
					return err
				}

				start := time.Now()
				n, err := scanner.Scan(rc, []byte(needle), func(m scan.Match) error {
					printMatch(path, m, time.Since(start))
					return nil
				})
				_ = rc.Close()
				if err != nil {
					return err
				}
				total += n
			}

			if total == 0 {
				return goerr.New("no matches found", goerr.V("needle", needle))
			}
			return nil
		},
	}
}

func cmdScanPeek() *cli.Command {
	var (
		length    int64
		around    int64
		forceGzip bool
	)

	return &cli.Command{
		Name:      "peek",
		Usage:     "Show the bytes at an offset without searching",
		ArgsUsage: "<offset> [path]",
		Flags: []cli.Flag{
			&cli.Int64Flag{
				Name:        "length",
				Aliases:     []string{"l"},
				Usage:       "Number of bytes to show at the offset",
				Value:       10,
				Destination: &length,
			},
			&cli.Int64Flag{
				Name:        "around",
				Aliases:     []string{"a"},
				Usage:       "Context bytes shown on each side",
				Value:       int64(scan.DefaultAround),
				Destination: &around,
			},
			&cli.BoolFlag{
				Name:        "force-gzip",
				Usage:       "Decompress as gzip regardless of the file extension",
				Destination: &forceGzip,
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			offsetArg := c.Args().First()
			if offsetArg == "" {
				return goerr.New("offset is required")
			}
			offset, err := strconv.ParseInt(offsetArg, 10, 64)
			if err != nil {
				return goerr.Wrap(err, "invalid offset", goerr.V("offset", offsetArg))
			}

			path := c.Args().Get(1)
			if path == "" {
				path = "-"
			}

			rc, err := scan.Open(path, forceGzip)
			if err != nil {
				return err
			}
			defer rc.Close()

			start := time.Now()
			m, err := scan.PeekAt(rc, offset, int(length), int(around))
			if err != nil {
				return err
			}

			printMatch(path, *m, time.Since(start))
			return nil
		},
	}
}

func cmdScanHash() *cli.Command {
	var algo string

	return &cli.Command{
		Name:      "hash",
		Usage:     "Print the digest of each file, for checking recorded artifact digests",
		ArgsUsage: "<path...>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "algo",
				Usage:       "Digest algorithm (md5, sha1, sha256)",
				Value:       "sha256",
				Destination: &algo,
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			if c.Args().Len() == 0 {
				return goerr.New("at least one path is required")
			}

			for _, path := range c.Args().Slice() {
				rc, err := scan.Open(path, false)
				if err != nil {
					return err
				}

				digest, err := scan.HashStream(rc, algo)
				_ = rc.Close()
				if err != nil {
					return err
				}

				fmt.Printf("%s  %s\n", digest, path)
			}
			return nil
		},
	}
}

func printMatch(path string, m scan.Match, elapsed time.Duration) {
	needle := color.New(color.FgCyan, color.Bold).Sprint(string(m.Needle))
	meta := color.New(color.Faint).Sprintf("%s  pos: %s  elapsed: %s",
		path, humanize.Comma(m.Position), elapsed.Round(time.Millisecond))

	fmt.Printf("%s%s%s\n  %s\n", string(m.Left), needle, string(m.Right), meta)
}
