package keys

import (
	"fmt"
	"strings"
	"time"

	"github.com/rcrowley/go-metrics"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/yassi/dj-redis-panel/cmd/util"
	"github.com/yassi/dj-redis-panel/lib/panel"
)

var (
	perfCmd = &cobra.Command{
		Use:     "perf",
		Short:   "Latency measurement tool for panel operations",
		RunE:    runPerf,
		PreRunE: processPerfConfig,
	}
	perfKeyPrefix = "__perf"
	perfOps       = 1000
	perfKeySpread = 100
	perfValueSize = 64
	perfSkip      = make([]string, 0)
)

func init() {
	// add flags
	key := "ops"
	perfCmd.Flags().Int(key, 1000, util.WrapString("Number of operations per measured command"))
	key = "keys"
	perfCmd.Flags().Int(key, 100, util.WrapString("How many different keys to use for the tests"))
	key = "value-size"
	perfCmd.Flags().Int(key, 64, util.WrapString("Size of the test values in bytes"))
	key = "skip"
	perfCmd.Flags().String(key, "", util.WrapString("Measurements to skip (comma separated - e.g. add,get)"))
}

func processPerfConfig(cmd *cobra.Command, _ []string) error {
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	// Read the configuration from the command line flags and environment variables
	perfOps = viper.GetInt("ops")
	perfKeySpread = viper.GetInt("keys")
	perfValueSize = viper.GetInt("value-size")
	perfSkip = strings.Split(viper.GetString("skip"), ",")

	return nil
}

func runPerf(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	instance := util.InstanceName()
	db := util.DB()

	fmt.Println("Latency measurement tool for panel operations")
	fmt.Println()
	fmt.Printf("Instance: %s (db %d)\n", instance, db)
	fmt.Printf("Operations: %d, keys: %d, value size: %dB\n", perfOps, perfKeySpread, perfValueSize)
	fmt.Println()

	registry := metrics.NewRegistry()
	value := strings.Repeat("x", perfValueSize)
	getKey, iter := perfKeys()

	// a previous aborted run may have left test keys behind
	iter(func(k string) {
		_ = panelEngine.DeleteKey(ctx, instance, db, k)
	})
	defer iter(func(k string) {
		_ = panelEngine.DeleteKey(ctx, instance, db, k)
	})

	if !shouldSkip("add") {
		timer := metrics.NewRegisteredTimer("add", registry)
		for i := 0; i < perfKeySpread; i++ {
			key := getKey(i)
			timer.Time(func() {
				if err := panelEngine.AddKey(ctx, instance, db, key, value, 0); err != nil {
					fmt.Printf("(add) - error adding key: %v\n", err)
				}
			})
		}
		printTimer("add", timer)
	} else {
		// the remaining measurements need the keys in place
		iter(func(k string) {
			_ = panelEngine.AddKey(ctx, instance, db, k, value, 0)
		})
		fmt.Printf("%-20sskipped\n", "add")
	}

	if !shouldSkip("get") {
		timer := metrics.NewRegisteredTimer("get", registry)
		for i := 0; i < perfOps; i++ {
			key := getKey(i)
			timer.Time(func() {
				if _, err := panelEngine.GetKey(ctx, instance, db, key); err != nil {
					fmt.Printf("(get) - error reading key: %v\n", err)
				}
			})
		}
		printTimer("get", timer)
	}

	if !shouldSkip("search") {
		timer := metrics.NewRegisteredTimer("search", registry)
		pattern := perfKeyPrefix + "-*"
		for i := 0; i < perfOps; i++ {
			timer.Time(func() {
				_, err := panelEngine.SearchKeys(ctx, instance, db, pattern, panel.Position{Page: 1}, 25)
				if err != nil {
					fmt.Printf("(search) - error searching keys: %v\n", err)
				}
			})
		}
		printTimer("search", timer)
	}

	if !shouldSkip("ttl") {
		timer := metrics.NewRegisteredTimer("ttl", registry)
		for i := 0; i < perfOps; i++ {
			key := getKey(i)
			timer.Time(func() {
				if err := panelEngine.UpdateTTL(ctx, instance, db, key, 3600); err != nil {
					fmt.Printf("(ttl) - error updating ttl: %v\n", err)
				}
			})
		}
		printTimer("ttl", timer)
	}

	if !shouldSkip("del") {
		timer := metrics.NewRegisteredTimer("del", registry)
		for i := 0; i < perfKeySpread; i++ {
			key := getKey(i)
			timer.Time(func() {
				if err := panelEngine.DeleteKey(ctx, instance, db, key); err != nil {
					fmt.Printf("(del) - error deleting key: %v\n", err)
				}
			})
		}
		printTimer("del", timer)
	}

	return ctx.Err()
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

func shouldSkip(test string) bool {
	// Check if the test is in the skip list
	for _, skip := range perfSkip {
		if test == skip {
			return true
		}
	}
	return false
}

// perfKeys creates the test key set and functions to work with it
func perfKeys() (func(int) string, func(func(string))) {
	keys := make([]string, perfKeySpread)
	for i := 0; i < perfKeySpread; i++ {
		keys[i] = fmt.Sprintf("%s-%d", perfKeyPrefix, i)
	}

	// Function to get a key by index (with wraparound)
	getKey := func(i int) string {
		return keys[i%perfKeySpread]
	}

	// Function to iterate over all keys and apply a function to each
	iterateKeys := func(fn func(string)) {
		for _, key := range keys {
			fn(key)
		}
	}

	return getKey, iterateKeys
}

// printTimer prints the result of one measurement in a formatted way
func printTimer(test string, timer metrics.Timer) {
	if timer.Count() == 0 {
		fmt.Printf("%-20sskipped\n", test)
		return
	}

	mean := time.Duration(int64(timer.Mean()))
	p95 := time.Duration(int64(timer.Percentile(0.95)))
	opsPerSec := 0.0
	if timer.Mean() > 0 {
		opsPerSec = 1e9 / timer.Mean()
	}

	fmt.Printf("%-20s%v/op\tp95 %v\t%.0f ops/sec\n", test, mean, p95, opsPerSec)
}
