package engine

import (
	"context"
	"strconv"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/yassi/dj-redis-panel/lib/panel"
	"github.com/yassi/dj-redis-panel/lib/panel/registry"
	"github.com/yassi/dj-redis-panel/lib/util"
)

const (
	// maxDatabases is the Redis default database count.
	maxDatabases = 16
	// overviewSampleSize bounds the per-database sample used to estimate
	// expiring-key counts and space usage without a full keyspace walk.
	overviewSampleSize = 100
	// memberSampleSize bounds the per-key member sample used to estimate
	// collection sizes.
	memberSampleSize = 10
)

// Overview reports server information and per-database statistics for one
// instance. Expiring-key counts and space usage are estimated from a
// bounded sample of each database's keyspace.
func (e *Engine) Overview(ctx context.Context, instance string) (overview *panel.InstanceOverview, err error) {
	defer e.observe("overview", instance, &err)

	state, err := e.state(instance)
	if err != nil {
		return nil, err
	}

	client, err := e.registry.Get(state.eff, state.eff.DB)
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, registry.Wrap(instance, "ping failed", err)
	}

	overview = &panel.InstanceOverview{Name: instance}

	// INFO fields are informational; absent sections leave zero values.
	if raw, err := client.Info(ctx).Result(); err == nil {
		info := parseInfo(raw)
		overview.Version = info["redis_version"]
		overview.MemoryUsed = info["used_memory_human"]
		overview.MemoryPeak = info["used_memory_peak_human"]
		overview.ConnectedClients, _ = strconv.ParseInt(info["connected_clients"], 10, 64)
		overview.UptimeSeconds, _ = strconv.ParseInt(info["uptime_in_seconds"], 10, 64)
		overview.TotalCommands, _ = strconv.ParseInt(info["total_commands_processed"], 10, 64)
	}

	for db := 0; db < maxDatabases; db++ {
		dbClient, err := e.registry.Get(state.eff, db)
		if err != nil {
			return nil, err
		}
		keyCount, err := dbClient.DBSize(ctx).Result()
		if err != nil {
			// Instances may expose fewer than 16 databases.
			break
		}
		// Skip empty databases after DB 0.
		if keyCount == 0 && db > 0 {
			continue
		}

		stat := panel.DatabaseStat{
			DB:        db,
			Keys:      keyCount,
			IsDefault: db == 0,
		}
		if keyCount > 0 {
			if err := e.sampleDatabase(ctx, dbClient, instance, keyCount, &stat); err != nil {
				return nil, err
			}
		}
		overview.Databases = append(overview.Databases, stat)
	}

	return overview, nil
}

// sampleDatabase estimates expiring-key count and space usage of one
// database from a bounded key sample.
func (e *Engine) sampleDatabase(ctx context.Context, client *redis.Client, instance string, keyCount int64, stat *panel.DatabaseStat) error {
	keys, _, err := client.Scan(ctx, 0, "*", overviewSampleSize).Result()
	if err != nil {
		return registry.Wrap(instance, "sample scan failed", err)
	}
	if len(keys) == 0 {
		return nil
	}

	var expiring int64
	sizes := make([]float64, 0, len(keys))
	for _, key := range keys {
		ttl, err := client.TTL(ctx, key).Result()
		if err == nil && ttl > 0 {
			expiring++
		}
		sizes = append(sizes, float64(estimateKeyBytes(ctx, client, key)))
	}

	stats := util.NewStats(sizes)
	stat.SampledKeys = len(keys)
	stat.MeanKeyBytes = int64(stats.Mean)
	stat.ExpiringEst = util.EstimateTotal(expiring, int64(len(keys)), keyCount)
	stat.SpaceBytesEst = util.EstimateTotal(int64(stats.Sum), int64(len(keys)), keyCount)
	return nil
}

// estimateKeyBytes approximates the footprint of one key: the key name
// plus its value, with collection values extrapolated from a small member
// sample. Keys that cannot be measured get a flat default so one bad key
// does not sink the whole estimate.
func estimateKeyBytes(ctx context.Context, client *redis.Client, key string) int64 {
	const fallbackEstimate = 100

	size := int64(len(key))
	keyType, err := client.Type(ctx, key).Result()
	if err != nil {
		return fallbackEstimate
	}

	switch keyType {
	case "string":
		n, err := client.StrLen(ctx, key).Result()
		if err != nil {
			return fallbackEstimate
		}
		size += n

	case "list":
		total, err := client.LLen(ctx, key).Result()
		if err != nil || total == 0 {
			break
		}
		sample, err := client.LRange(ctx, key, 0, memberSampleSize-1).Result()
		if err != nil || len(sample) == 0 {
			break
		}
		size += scaleMemberBytes(byteLengths(sample), total, 0)

	case "set":
		total, err := client.SCard(ctx, key).Result()
		if err != nil || total == 0 {
			break
		}
		sample, _, err := client.SScan(ctx, key, 0, "*", memberSampleSize).Result()
		if err != nil || len(sample) == 0 {
			break
		}
		size += scaleMemberBytes(byteLengths(sample), total, 0)

	case "zset":
		total, err := client.ZCard(ctx, key).Result()
		if err != nil || total == 0 {
			break
		}
		sample, err := client.ZRangeWithScores(ctx, key, 0, memberSampleSize-1).Result()
		if err != nil || len(sample) == 0 {
			break
		}
		lengths := make([]int64, 0, len(sample))
		for _, z := range sample {
			member, _ := z.Member.(string)
			lengths = append(lengths, int64(len(member)))
		}
		// 8 bytes per member for the score.
		size += scaleMemberBytes(lengths, total, 8)

	case "hash":
		total, err := client.HLen(ctx, key).Result()
		if err != nil || total == 0 {
			break
		}
		pairs, _, err := client.HScan(ctx, key, 0, "*", memberSampleSize).Result()
		if err != nil || len(pairs) < 2 {
			break
		}
		lengths := make([]int64, 0, len(pairs)/2)
		for i := 0; i+1 < len(pairs); i += 2 {
			lengths = append(lengths, int64(len(pairs[i])+len(pairs[i+1])))
		}
		size += scaleMemberBytes(lengths, total, 0)

	default:
		return fallbackEstimate
	}

	return size
}

func byteLengths(values []string) []int64 {
	lengths := make([]int64, len(values))
	for i, v := range values {
		lengths[i] = int64(len(v))
	}
	return lengths
}

// scaleMemberBytes extrapolates the average sampled member size (plus a
// fixed per-member overhead) to the full member count.
func scaleMemberBytes(lengths []int64, total, overhead int64) int64 {
	if len(lengths) == 0 {
		return 0
	}
	var sum int64
	for _, n := range lengths {
		sum += n + overhead
	}
	avg := float64(sum) / float64(len(lengths))
	return int64(avg * float64(total))
}

// parseInfo splits an INFO reply into a flat key/value map.
func parseInfo(raw string) map[string]string {
	info := make(map[string]string)
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if key, value, ok := strings.Cut(line, ":"); ok {
			info[key] = value
		}
	}
	return info
}
