package commands

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/next-trace/scg-meal-bus/cache"
)

func cacheCmd(g *globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect or invalidate cache entries in Redis (REDIS_ADDR)",
	}

	cmd.AddCommand(cacheGetCmd(g), cacheInvalidateCmd(g))

	return cmd
}

func (g *globals) openCache(cmd *cobra.Command) (*cache.Service, func(), error) {
	if g.cfg.RedisAddr == "" {
		return nil, nil, errors.New("REDIS_ADDR is not set")
	}

	rs, closeFn, err := cache.DialRedis(cmd.Context(), cache.RedisConfig{Addr: g.cfg.RedisAddr, DB: g.cfg.RedisDB})
	if err != nil {
		return nil, nil, err
	}

	return cache.New(rs, cache.Options{Enabled: true, DefaultTTL: g.cfg.CacheDefaultTTL, Logger: g.logger}), closeFn, nil
}

func cacheGetCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Print the JSON stored under key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, closeFn, err := g.openCache(cmd)
			if err != nil {
				return err
			}
			defer closeFn()

			raw, ok := cache.Get[json.RawMessage](cmd.Context(), svc, args[0])
			if !ok {
				return fmt.Errorf("%s: not cached", args[0])
			}

			fmt.Fprintln(cmd.OutOrStdout(), string(raw))

			return nil
		},
	}
}

func cacheInvalidateCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "invalidate <key-or-pattern>",
		Short: "Delete a key, or every key matching a glob such as daily:macros:u1:*",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, closeFn, err := g.openCache(cmd)
			if err != nil {
				return err
			}
			defer closeFn()

			n := 0
			if cache.IsPattern(args[0]) {
				n = svc.InvalidatePattern(cmd.Context(), args[0])
			} else if svc.Invalidate(cmd.Context(), args[0]) {
				n = 1
			}

			fmt.Fprintf(cmd.OutOrStdout(), "removed %d\n", n)

			return nil
		},
	}
}
