package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/wolfitem/newshub/internal/infrastructure/logger"
)

var (
	outputFile string
	limitFlag  int
	skipLLM    bool
)

// fetchCmd represents the fetch command
var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "执行一次完整的抓取与摘要流水线",
	Long: `抓取配置的RSS订阅源，解析文章并生成双语摘要，
把完整的载荷JSON输出到stdout或指定文件。
配合--skip-llm可以只走启发式降级路径。`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := buildPipelineConfig()
		if err != nil {
			logger.Error("组装流水线配置失败", "error", err)
			return err
		}
		if limitFlag > 0 {
			cfg.MaxArticles = limitFlag
		}

		pipeline := buildPipeline(cfg, skipLLM)
		payload, err := pipeline.GetPayload(context.Background(), false)
		if err != nil {
			logger.Error("流水线运行失败", "error", err)
			return fmt.Errorf("流水线运行失败: %w", err)
		}

		data, err := json.MarshalIndent(payload, "", "  ")
		if err != nil {
			return fmt.Errorf("序列化载荷失败: %w", err)
		}

		// 输出结果
		if outputFile == "" {
			fmt.Println(string(data))
			return nil
		}

		// 确保输出目录存在
		outputDir := filepath.Dir(outputFile)
		if outputDir != "." {
			if err := os.MkdirAll(outputDir, 0755); err != nil {
				return fmt.Errorf("创建输出目录失败: %w", err)
			}
		}

		if err := os.WriteFile(outputFile, data, 0644); err != nil {
			return fmt.Errorf("写入输出文件失败: %w", err)
		}
		fmt.Printf("载荷已保存到: %s\n", outputFile)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(fetchCmd)

	// 本地标志
	fetchCmd.Flags().StringVarP(&outputFile, "output", "f", "", "输出文件路径（可选，默认为stdout）")
	fetchCmd.Flags().IntVar(&limitFlag, "limit", 0, "本次运行处理的文章数量上限（覆盖配置）")
	fetchCmd.Flags().BoolVar(&skipLLM, "skip-llm", false, "跳过LLM调用，直接走降级摘要")
}
