package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// checkCmd represents the check command
var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "严格校验配置的订阅源",
	Long: `用严格的RSS/Atom解析器逐个检查配置的订阅源（rss.url或
rss.opml_file中的全部来源），报告条目数量和解析错误。
核心流水线使用容错解析器，本命令用于排查订阅源本身的问题。`,
	RunE: func(cmd *cobra.Command, args []string) error {
		var sources []string
		if feedURL := viper.GetString("rss.url"); feedURL != "" {
			sources = append(sources, feedURL)
		}
		if opmlFile := viper.GetString("rss.opml_file"); opmlFile != "" {
			urls, err := opmlSources(opmlFile)
			if err != nil {
				return err
			}
			sources = append(sources, urls...)
		}
		if len(sources) == 0 {
			return fmt.Errorf("未配置任何订阅源")
		}

		parser := gofeed.NewParser()
		failed := 0
		for _, src := range sources {
			ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			feed, err := parser.ParseURLWithContext(src, ctx)
			cancel()

			if err != nil {
				failed++
				fmt.Printf("✗ %s: %v\n", src, err)
				continue
			}
			fmt.Printf("✓ %s: %q，共%d条\n", src, feed.Title, len(feed.Items))
		}

		if failed == len(sources) {
			return fmt.Errorf("全部%d个订阅源校验失败", failed)
		}
		fmt.Printf("校验完成: %d/%d 正常\n", len(sources)-failed, len(sources))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
}
