package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	configFile string
	env        string
	verbose    bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "quant",
	Short: "cnquant - A股 行情 / 全市场选股 / 研究报告",
	Long: `cnquant Unified CLI

A股 공개 시세 API(Sina, Tencent) 기반 리서치 도구.
전체 시장 스크린: universe → hard filter → score → enrich → rank → emit.

Usage:
  go run ./cmd/quant [command]

Examples:
  go run ./cmd/quant screen --top 30
  go run ./cmd/quant quote 600519
  go run ./cmd/quant kline 600519 --period weekly
  go run ./cmd/quant market
  go run ./cmd/quant report 600519 000858
  go run ./cmd/quant scheduler start
  go run ./cmd/quant api`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default is .env)")
	rootCmd.PersistentFlags().StringVar(&env, "env", "development", "environment (development|staging|production)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
