package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/wolfitem/newshub/internal/infrastructure/logger"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "newshub",
	Short: "AI新闻订阅源双语摘要服务",
	Long: `NewsHub是一个基于Go语言的AI新闻聚合服务，抓取指定的RSS订阅源，
解析文章内容并生成中英双语摘要。LLM不可用时自动降级为启发式摘要
加公共翻译接口，最终通过HTTP接口对外提供带缓存的完整载荷。`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	defer logger.Sync()

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	// 全局标志
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "配置文件路径 (默认为 ./config.yaml)")
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	// 先加载.env文件（不存在时静默忽略）
	_ = godotenv.Load()

	if cfgFile != "" {
		// 使用指定的配置文件
		viper.SetConfigFile(cfgFile)
	} else {
		// 在当前目录中查找配置文件
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	setDefaults()

	// 读取配置文件
	if err := viper.ReadInConfig(); err == nil {
		fmt.Println("使用配置文件:", viper.ConfigFileUsed())
	} else {
		fmt.Printf("无法读取配置文件，使用默认配置: %v\n", err)
	}

	// 读取环境变量
	viper.AutomaticEnv()

	// 初始化日志系统
	initLogger()
}

// setDefaults 设置各配置项的默认值
func setDefaults() {
	viper.SetDefault("rss.url", "https://news.smol.ai/rss.xml")
	viper.SetDefault("rss.max_articles", 12)
	viper.SetDefault("rss.fetch_timeout", 10)
	viper.SetDefault("rss.snapshot_file", "data/sample-feed.xml")
	viper.SetDefault("cache.ttl_minutes", 10)
	viper.SetDefault("openai.model", "gpt-4o-mini")
	viper.SetDefault("openai.temperature", 0.2)
	viper.SetDefault("openai.timeout", 30)
	viper.SetDefault("translate.timeout", 7)
	viper.SetDefault("server.addr", ":8080")
	viper.SetDefault("server.rate_limit", 60)
	viper.SetDefault("server.rate_window_seconds", 60)
}

// initLogger 初始化日志系统
func initLogger() {
	logConfig := logger.Config{
		Level:      viper.GetString("logger.level"),
		Console:    viper.GetBool("logger.console"),
		FilePath:   viper.GetString("logger.file_path"),
		MaxSize:    viper.GetInt("logger.max_size"),
		MaxBackups: viper.GetInt("logger.max_backups"),
		MaxAge:     viper.GetInt("logger.max_age"),
		Compress:   viper.GetBool("logger.compress"),
	}

	if err := logger.Init(logConfig); err != nil {
		fmt.Printf("初始化日志系统失败: %v\n", err)
	}
}
