// Command mphf is the minimum build/lookup driver for the pthash
// package: a newline-delimited key (and optional value) loader around
// pthash.BuildUsingSeed and pthash.MPHF.Get. The on-disk format, the
// bucketer, and the encoding are the spec; this is just I/O plumbing.
package main

import (
	"bufio"
	"fmt"
	"math/rand"
	"os"
	"strings"
	"time"

	"github.com/bitpacked/succinct/pthash"
	"github.com/bitpacked/succinct/serialize"
	humanize "github.com/dustin/go-humanize"
	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v2"
	"github.com/valyala/bytebufferpool"
	"k8s.io/klog/v2"
)

func rngFromTime() *rand.Rand {
	return rand.New(rand.NewSource(time.Now().UnixNano()))
}

func main() {
	app := &cli.App{
		Name:        "mphf",
		Usage:       "build and query PTHash minimal perfect hash functions",
		Description: "build reads newline-delimited records, space-split (key, optional value); lookup evaluates a built function at a key.",
		Commands: []*cli.Command{
			buildCmd(),
			lookupCmd(),
		},
	}
	if err := app.Run(os.Args); err != nil {
		klog.Exit(err.Error())
	}
}

var (
	flagInput = &cli.StringFlag{Name: "input", Aliases: []string{"i"}, Required: true, Usage: "build: path to newline-delimited key records; lookup: path to a serialized MPHF"}
	flagOutput = &cli.StringFlag{Name: "output", Aliases: []string{"o"}, Required: true, Usage: "path to write the serialized MPHF"}
	flagSeed  = &cli.Uint64Flag{Name: "seed", Aliases: []string{"s"}, Usage: "fixed build seed (random seeds are searched when omitted)"}
	flagC     = &cli.IntFlag{Name: "c", Value: 7, Usage: "bucketer constant c"}
	flagAlpha = &cli.Float64Flag{Name: "alpha", Aliases: []string{"a"}, Value: 0.95, Usage: "load factor alpha in (0,1]"}
	flagDict  = &cli.BoolFlag{Name: "dict", Aliases: []string{"d"}, Usage: "encode pivots with DictArray instead of PackedArray"}
	flagKey   = &cli.StringFlag{Name: "key", Aliases: []string{"k"}, Usage: "key to evaluate"}
	flagBench = &cli.BoolFlag{Name: "benchmark", Aliases: []string{"b"}, Usage: "run a lookup throughput benchmark over the key records file given as the first argument"}
)

func buildCmd() *cli.Command {
	return &cli.Command{
		Name:  "build",
		Usage: "build an MPHF from newline-delimited keys",
		Flags: []cli.Flag{flagInput, flagOutput, flagSeed, flagC, flagAlpha, flagDict},
		Action: func(c *cli.Context) error {
			keys, _, err := readRecords(c.String(flagInput.Name))
			if err != nil {
				return err
			}
			if len(keys) == 0 {
				return fmt.Errorf("mphf: no records in %s", c.String(flagInput.Name))
			}

			params := pthash.Params{C: c.Float64(flagC.Name), Alpha: c.Float64(flagAlpha.Name)}
			encFn := pthash.PackedArrayEncoding
			if c.Bool(flagDict.Name) {
				encFn = pthash.DictArrayEncoding
			}

			klog.Infof("building MPHF over %s keys (c=%.2f alpha=%.2f)", humanize.Comma(int64(len(keys))), params.C, params.Alpha)
			start := time.Now()

			var mp *pthash.MPHF
			seed := c.Uint64(flagSeed.Name)
			if c.IsSet(flagSeed.Name) {
				mp, err = pthash.BuildUsingSeed(keys, params, seed, pthash.XXHasher{}, encFn)
			} else {
				mp, err = pthash.BuildUsingRandomSeed(keys, params, 0, rngFromTime(), pthash.XXHasher{}, encFn)
			}
			if err != nil {
				return fmt.Errorf("mphf: build failed: %w", err)
			}
			klog.Infof("built in %s", time.Since(start))

			w := serialize.NewWriter()
			mp.WriteTo(w)
			return os.WriteFile(c.String(flagOutput.Name), w.Bytes(), 0o644)
		},
	}
}

func lookupCmd() *cli.Command {
	return &cli.Command{
		Name:  "lookup",
		Usage: "evaluate a built MPHF",
		Flags: []cli.Flag{flagInput, flagKey, flagBench},
		Action: func(c *cli.Context) error {
			pooled := bytebufferpool.Get()
			defer bytebufferpool.Put(pooled)
			if err := readFileInto(pooled, c.String(flagInput.Name)); err != nil {
				return fmt.Errorf("mphf: read %s: %w", c.String(flagInput.Name), err)
			}
			mp, err := pthash.ReadFromBorrowed(serialize.NewReader(pooled.B), pthash.XXHasher{})
			if err != nil {
				return fmt.Errorf("mphf: decode: %w", err)
			}
			klog.Infof("loaded MPHF over n=%s keys", humanize.Comma(int64(mp.Len())))

			if key := c.String(flagKey.Name); key != "" {
				fmt.Println(mp.Get([]byte(key)))
			}

			if c.Bool(flagBench.Name) {
				return benchmark(mp, c.Args().Slice())
			}
			return nil
		},
	}
}

func benchmark(mp *pthash.MPHF, extraFiles []string) error {
	if len(extraFiles) == 0 {
		return fmt.Errorf("mphf: benchmark requires a key file argument")
	}
	keys, _, err := readRecords(extraFiles[0])
	if err != nil {
		return err
	}

	bar := progressbar.Default(int64(len(keys)), "looking up")
	start := time.Now()
	for _, k := range keys {
		_ = mp.Get(k)
		bar.Add(1)
	}
	elapsed := time.Since(start)
	klog.Infof("%s lookups in %s (%.0f ns/op)", humanize.Comma(int64(len(keys))), elapsed, float64(elapsed.Nanoseconds())/float64(len(keys)))
	return nil
}

// readFileInto loads path into buf's pooled backing slice, avoiding a
// fresh allocation per lookup invocation on the serialized-container
// query path.
func readFileInto(buf *bytebufferpool.ByteBuffer, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	buf.Reset()
	_, err = buf.ReadFrom(f)
	return err
}

// readRecords reads newline-delimited, space-split records: first
// field is the key, an optional second field is a u64 value.
func readRecords(path string) (keys [][]byte, values []uint64, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("mphf: open %s: %w", path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 1024*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		fields := strings.SplitN(line, " ", 2)
		keys = append(keys, []byte(fields[0]))
		if len(fields) > 1 {
			var v uint64
			fmt.Sscanf(fields[1], "%d", &v)
			values = append(values, v)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, fmt.Errorf("mphf: scan %s: %w", path, err)
	}
	return keys, values, nil
}
