// Command burr is the minimum build/lookup driver for the burr
// package: a newline-delimited, comma-split (key, value) loader around
// burr.BuildUsingSeed and burr.BumpedRibbon.Get.
package main

import (
	"bufio"
	"fmt"
	"math/bits"
	"math/rand"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/bitpacked/succinct/burr"
	"github.com/bitpacked/succinct/serialize"
	humanize "github.com/dustin/go-humanize"
	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v2"
	"github.com/valyala/bytebufferpool"
	"k8s.io/klog/v2"
)

func main() {
	app := &cli.App{
		Name:        "burr",
		Usage:       "build and query Bumped Ribbon Retrieval tables",
		Description: "build reads newline-delimited, comma-split (key, value) records; lookup evaluates a built table at a key.",
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
	flagInput  = &cli.StringFlag{Name: "input", Aliases: []string{"i"}, Required: true, Usage: "build: path to newline-delimited, comma-split key,value records; lookup: path to a serialized BumpedRibbon"}
	flagOutput = &cli.StringFlag{Name: "output", Aliases: []string{"o"}, Required: true, Usage: "path to write the serialized BumpedRibbon"}
	flagSeed   = &cli.Uint64Flag{Name: "seed", Aliases: []string{"s"}, Usage: "fixed build seed"}
	flagEps    = &cli.Float64Flag{Name: "eps", Value: burr.DefaultEpsilon, Usage: "per-layer table universe overhead"}
	flagWidth  = &cli.IntFlag{Name: "w", Value: 32, Usage: "ribbon band width, <= 64"}
	flagKey    = &cli.StringFlag{Name: "key", Aliases: []string{"k"}, Usage: "key to evaluate"}
	flagBench  = &cli.BoolFlag{Name: "benchmark", Aliases: []string{"b"}, Usage: "run a lookup throughput benchmark over the key,value records file given as the first argument"}
)

func buildCmd() *cli.Command {
	return &cli.Command{
		Name:  "build",
		Usage: "build a BumpedRibbon from newline-delimited key,value records",
		Flags: []cli.Flag{flagInput, flagOutput, flagSeed, flagEps, flagWidth},
		Action: func(c *cli.Context) error {
			keys, values, err := readRecords(c.String(flagInput.Name))
			if err != nil {
				return err
			}
			if len(keys) == 0 {
				return fmt.Errorf("burr: no records in %s", c.String(flagInput.Name))
			}

			w := uint(c.Int(flagWidth.Name))
			if w == 0 || w > 64 {
				return fmt.Errorf("burr: -w must be in [1, 64], got %d", w)
			}
			r := valueWidth(values)

			seed := c.Uint64(flagSeed.Name)
			if !c.IsSet(flagSeed.Name) {
				seed = rngFromTime().Uint64()
			}

			klog.Infof("building BumpedRibbon over %s keys (w=%d r=%d eps=%.3f seed=%d)", humanize.Comma(int64(len(keys))), w, r, c.Float64(flagEps.Name), seed)
			start := time.Now()
			br, err := burr.BuildUsingSeed(keys, values, w, r, seed, c.Float64(flagEps.Name), burr.XXHasher{})
			if err != nil {
				return fmt.Errorf("burr: build failed: %w", err)
			}
			klog.Infof("built in %s", time.Since(start))

			sw := serialize.NewWriter()
			br.WriteTo(sw)
			return os.WriteFile(c.String(flagOutput.Name), sw.Bytes(), 0o644)
		},
	}
}

func lookupCmd() *cli.Command {
	return &cli.Command{
		Name:  "lookup",
		Usage: "evaluate a built BumpedRibbon",
		Flags: []cli.Flag{flagInput, flagKey, flagBench},
		Action: func(c *cli.Context) error {
			pooled := bytebufferpool.Get()
			defer bytebufferpool.Put(pooled)
			if err := readFileInto(pooled, c.String(flagInput.Name)); err != nil {
				return fmt.Errorf("burr: read %s: %w", c.String(flagInput.Name), err)
			}
			br, err := burr.ReadFromBorrowed(serialize.NewReader(pooled.B), burr.XXHasher{})
			if err != nil {
				return fmt.Errorf("burr: decode: %w", err)
			}

			if key := c.String(flagKey.Name); key != "" {
				fmt.Println(br.Get([]byte(key)))
			}

			if c.Bool(flagBench.Name) {
				return benchmark(br, c.Args().Slice())
			}
			return nil
		},
	}
}

func benchmark(br *burr.BumpedRibbon, extraFiles []string) error {
	if len(extraFiles) == 0 {
		return fmt.Errorf("burr: benchmark requires a key file argument")
	}
	keys, _, err := readRecords(extraFiles[0])
	if err != nil {
		return err
	}

	bar := progressbar.Default(int64(len(keys)), "looking up")
	start := time.Now()
	for _, k := range keys {
		_ = br.Get(k)
		bar.Add(1)
	}
	elapsed := time.Since(start)
	klog.Infof("%s lookups in %s (%.0f ns/op)", humanize.Comma(int64(len(keys))), elapsed, float64(elapsed.Nanoseconds())/float64(len(keys)))
	return nil
}

func rngFromTime() *rand.Rand {
	return rand.New(rand.NewSource(time.Now().UnixNano()))
}

// valueWidth returns the smallest bit width that fits every value,
// floored at 1 (the row solver's payload register width r).
func valueWidth(values []uint64) uint {
	var maxV uint64
	for _, v := range values {
		if v > maxV {
			maxV = v
		}
	}
	width := uint(bits.Len64(maxV))
	if width == 0 {
		width = 1
	}
	return width
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

// readRecords reads newline-delimited, comma-split (key, value) records.
func readRecords(path string) (keys [][]byte, values []uint64, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("burr: open %s: %w", path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 1024*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		fields := strings.SplitN(line, ",", 2)
		if len(fields) != 2 {
			return nil, nil, fmt.Errorf("burr: malformed record %q, expected key,value", line)
		}
		v, err := strconv.ParseUint(strings.TrimSpace(fields[1]), 10, 64)
		if err != nil {
			return nil, nil, fmt.Errorf("burr: malformed value in %q: %w", line, err)
		}
		keys = append(keys, []byte(fields[0]))
		values = append(values, v)
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, fmt.Errorf("burr: scan %s: %w", path, err)
	}
	return keys, values, nil
}
