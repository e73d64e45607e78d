package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
)

// 默认值
const (
	DefaultDataFile   = "njmin3.csv"
	DefaultLogName    = "app.log"
	DefaultLogMaxSize = "10 * 1024 * 1024"
	DefaultSubject    = "Card & Krueger 双重差分回归结果"

	// SMTP 密码可以放在 .env 或环境变量中，避免写进 config.json
	EnvSMTPPassword = "DID_SMTP_PASSWORD"
)

// Config 结构体定义了应用程序的配置结构
type Config struct {
	DataFile      string   `json:"data_file"`      // 输入数据文件(csv 或 xlsx)
	SheetName     string   `json:"sheet_name"`     // xlsx 输入时的工作表名，空则取第一个
	Encoding      string   `json:"encoding"`       // 输入文本编码(IANA 名称)，空则按 UTF-8
	Delimiter     string   `json:"delimiter"`      // 分隔符，默认逗号
	LogName       string   `json:"log_name"`       // 日志文件
	LogMaxSize    string   `json:"log_max_size"`   // 日志轮转阈值，如 "10 * 1024 * 1024"
	ReportXLSX    string   `json:"report_xlsx"`    // 回归结果导出路径，空则不导出
	Watch         bool     `json:"watch"`          // 监听数据文件变化并重新计算
	WatchDebounce Duration `json:"watch_debounce"` // 文件事件去抖间隔
	Schedule      string   `json:"schedule"`       // cron 表达式，如 "@every 1h"
	LogAddr       string   `json:"log_addr"`       // 常驻模式下实时日志的 HTTP 地址，如 ":8080"

	SendEmail struct {
		Server   string   `json:"server"`   // SMTP 服务器地址
		Username string   `json:"username"` // 发件邮箱
		Password string   `json:"password"` // 密码/授权码
		To       []string `json:"to"`       // 收件人
		Subject  string   `json:"subject"`  // 邮件主题
	} `json:"send_email"`
}

// DataConfig 数据相关配置：显示名称、插补列
type DataConfig struct {
	Labels        map[string]string `json:"labels"`         // 列名 -> 报告中的显示名称
	ResponseLabel string            `json:"response_label"` // 因变量显示名称
	Impute        []string          `json:"impute"`         // 需要均值插补的列
}

var (
	once               sync.Once
	instance           *Config
	dataConfigInstance *DataConfig
)

// Default 返回不依赖任何配置文件的默认配置
func Default() *Config {
	cfg := &Config{
		DataFile:      DefaultDataFile,
		Delimiter:     ",",
		LogName:       DefaultLogName,
		LogMaxSize:    DefaultLogMaxSize,
		WatchDebounce: Duration(2 * time.Second),
	}
	cfg.SendEmail.Subject = DefaultSubject
	return cfg
}

// DefaultDataConfig 返回与原始研究一致的显示名称
func DefaultDataConfig() *DataConfig {
	return &DataConfig{
		Labels: map[string]string{
			"NJ":              "New Jersey",
			"POST_APRIL92":    "After April 92",
			"NJ_POST_APRIL92": "NJ after April 92",
			"bk":              "BK",
			"kfc":             "KFC",
			"roys":            "Roys",
			"wendys":          "Wendys",
		},
		ResponseLabel: "FTE",
		Impute:        []string{"fte", "demp"},
	}
}

// LoadConfig 只加载一次配置，之后返回缓存结果
func LoadConfig(jsonFolder, jsonFile, dataJsonFile string) (*Config, *DataConfig, error) {
	var err error
	once.Do(func() {
		instance, dataConfigInstance, err = Load(jsonFolder, jsonFile, dataJsonFile)
	})
	return instance, dataConfigInstance, err
}

// Load 读取并解析两个配置文件，文件不存在时使用默认值
func Load(jsonFolder, jsonFile, dataJsonFile string) (*Config, *DataConfig, error) {
	configFile := filepath.Join(jsonFolder, jsonFile)
	dataConfigFile := filepath.Join(jsonFolder, dataJsonFile)

	configData, err := readFile(configFile)
	if err != nil {
		return nil, nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	dataConfigData, err := readFile(dataConfigFile)
	if err != nil {
		return nil, nil, fmt.Errorf("读取数据配置文件失败: %w", err)
	}

	cfgChan := make(chan *Config, 1)
	dcfgChan := make(chan *DataConfig, 1)
	errChan := make(chan error, 2)

	go parseConfig(configData, cfgChan, errChan)
	go parseDataConfig(dataConfigData, dcfgChan, errChan)

	cfg, dcfg, err := waitForResults(cfgChan, dcfgChan, errChan)
	if err != nil {
		return nil, nil, err
	}

	applyEnv(cfg)
	return cfg, dcfg, nil
}

// readFile 读取文件，文件不存在返回 nil 数据
func readFile(filePath string) ([]byte, error) {
	data, err := os.ReadFile(filePath)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("无法读取文件 %s: %w", filePath, err)
	}
	return data, nil
}

func parseConfig(data []byte, resultChan chan<- *Config, errChan chan<- error) {
	cfg := Default()
	if len(data) > 0 {
		if err := json.Unmarshal(data, cfg); err != nil {
			errChan <- fmt.Errorf("解析Config失败: %w", err)
			return
		}
	}
	resultChan <- cfg
}

func parseDataConfig(data []byte, resultChan chan<- *DataConfig, errChan chan<- error) {
	dcfg := DefaultDataConfig()
	if len(data) > 0 {
		// labels 按键合并到默认值上
		if err := json.Unmarshal(data, dcfg); err != nil {
			errChan <- fmt.Errorf("解析DataConfig失败: %w", err)
			return
		}
	}
	resultChan <- dcfg
}

func waitForResults(
	cfgChan <-chan *Config,
	dcfgChan <-chan *DataConfig,
	errChan <-chan error,
) (*Config, *DataConfig, error) {
	var (
		cfg  *Config
		dcfg *DataConfig
		errs []error
	)

	for i := 0; i < 2; i++ {
		select {
		case c := <-cfgChan:
			cfg = c
		case d := <-dcfgChan:
			dcfg = d
		case err := <-errChan:
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return nil, nil, combineErrors(errs)
	}

	if cfg == nil || dcfg == nil {
		return nil, nil, fmt.Errorf("部分配置未加载成功")
	}

	return cfg, dcfg, nil
}

func combineErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("配置加载遇到多个错误: %w", errors.Join(errs...))
}

// applyEnv 从 .env 和环境变量覆盖敏感配置
func applyEnv(cfg *Config) {
	_ = godotenv.Load()
	if pw := os.Getenv(EnvSMTPPassword); pw != "" {
		cfg.SendEmail.Password = pw
	}
}

// LogMaxBytes 解析 "10 * 1024 * 1024" 形式的日志大小
func (c *Config) LogMaxBytes() (int64, error) {
	expr := strings.TrimSpace(c.LogMaxSize)
	if expr == "" {
		return 0, nil
	}
	var result int64 = 1
	for _, part := range strings.Split(expr, "*") {
		num, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("log_max_size %q 格式错误: %w", c.LogMaxSize, err)
		}
		if num < 0 {
			return 0, fmt.Errorf("log_max_size %q 不能为负数", c.LogMaxSize)
		}
		if num != 0 && result > math.MaxInt64/num {
			return 0, fmt.Errorf("log_max_size %q 超出范围", c.LogMaxSize)
		}
		result *= num
	}
	return result, nil
}

// Duration 是time.Duration的自定义包装类型
// 用于支持JSON反序列化，如 "2s"
type Duration time.Duration

// UnmarshalJSON 实现json.Unmarshaler接口
func (d *Duration) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	dur, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(dur)
	return nil
}

// Label 返回列的显示名称，未配置时返回列名本身
func (dc *DataConfig) Label(colName string) string {
	if l, ok := dc.Labels[colName]; ok && l != "" {
		return l
	}
	return colName
}
