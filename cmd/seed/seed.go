package seed

import (
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/yassi/dj-redis-panel/cmd/util"
	"github.com/yassi/dj-redis-panel/lib/panel/registry"
)

var (
	// SeedCmd fills a database with sample data of every key type, for
	// trying out the panel against a fresh instance.
	SeedCmd = &cobra.Command{
		Use:   "seed",
		Short: "Fill a database with sample keys of every type",
		RunE:  runSeed,
	}
)

func init() {
	SeedCmd.Flags().Int("count", 50, util.WrapString("Number of sample keys per type"))
	SeedCmd.Flags().Int64("ttl", 0, util.WrapString("TTL in seconds for every other string key (0 for none)"))
}

func runSeed(cmd *cobra.Command, _ []string) error {
	e, err := util.GetEngine(cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	eff, err := e.Config(util.InstanceName())
	if err != nil {
		return err
	}

	// Collection keys are created directly: the engine's member mutations
	// operate on existing keys only.
	reg := registry.New()
	defer reg.Close()
	client, err := reg.Get(eff, util.DB())
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	count := viper.GetInt("count")
	ttl := viper.GetInt64("ttl")

	for i := 0; i < count; i++ {
		pipe := client.Pipeline()

		pipe.Set(ctx, fmt.Sprintf("sample:string:%04d", i), fmt.Sprintf("value %d", i), 0)
		pipe.RPush(ctx, fmt.Sprintf("sample:list:%04d", i), "first", "second", "third")
		pipe.HSet(ctx, fmt.Sprintf("sample:hash:%04d", i),
			"name", fmt.Sprintf("entry %d", i), "index", fmt.Sprintf("%d", i))
		pipe.SAdd(ctx, fmt.Sprintf("sample:set:%04d", i), "red", "green", "blue")
		pipe.ZAdd(ctx, fmt.Sprintf("sample:zset:%04d", i),
			redis.Z{Score: 1, Member: "low"},
			redis.Z{Score: 2, Member: "mid"},
			redis.Z{Score: 3, Member: "high"})

		if ttl > 0 && i%2 == 0 {
			pipe.Expire(ctx, fmt.Sprintf("sample:string:%04d", i), time.Duration(ttl)*time.Second)
		}

		if _, err := pipe.Exec(ctx); err != nil {
			return registry.Wrap(eff.Name, "seeding failed", err)
		}
	}

	fmt.Printf("seeded %d keys per type into %s (db %d)\n", count, eff.Name, util.DB())
	return nil
}
