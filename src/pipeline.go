package main

import (
	"MinWageDiD/src/config"
	"MinWageDiD/src/datapush"
	"MinWageDiD/src/datasource/file"
	"MinWageDiD/src/processor"
	"MinWageDiD/src/storage"
	"bytes"
	"fmt"
	"io"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// pipeline 一次完整计算：读取、插补、三个模型的拟合与报告
type pipeline struct {
	cfg    *config.Config
	dcfg   *config.DataConfig
	logger *storage.Logger
	out    io.Writer

	mu sync.Mutex // 定时任务和文件事件可能同时触发，计算串行执行
}

func newPipeline(cfg *config.Config, dcfg *config.DataConfig, logger *storage.Logger, out io.Writer) *pipeline {
	return &pipeline{cfg: cfg, dcfg: dcfg, logger: logger, out: out}
}

// RunLogged 常驻模式下使用，失败只记录日志
func (p *pipeline) RunLogged() {
	if err := p.Run(); err != nil {
		p.logger.Error("本次计算失败: " + err.Error())
	}
}

// Run 执行一次计算，每次运行的日志带上运行ID
func (p *pipeline) Run() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	runID := uuid.NewString()[:8]
	p.logger.SetPrefix(runID)
	defer p.logger.SetPrefix("")

	err := p.analyze()

	if rerr := p.logger.CheckRotate(p.cfg); rerr != nil {
		p.logger.Warning("日志轮转失败: " + rerr.Error())
	}
	return err
}

func (p *pipeline) analyze() error {
	t1 := time.Now()

	p.logger.Info("读取数据: " + p.cfg.DataFile)
	df, err := file.ReadTable(p.cfg.DataFile, file.ReadOptions{
		Columns:   processor.NJMin.Names(),
		Sheet:     p.cfg.SheetName,
		Encoding:  p.cfg.Encoding,
		Delimiter: delimiter(p.cfg.Delimiter),
	})
	if err != nil {
		return err
	}

	proc, err := processor.NewDataProcessor(df, processor.NJMin)
	if err != nil {
		return err
	}
	p.logger.Info(fmt.Sprintf("共 %d 行 %d 列", df.Nrow(), df.Ncol()))

	missing := proc.MissingCounts()
	for _, c := range processor.NJMin.Columns {
		if n := missing[c]; n > 0 {
			p.logger.Info(fmt.Sprintf("列 %s 缺失 %d 个值", c, n))
		}
	}
	p.logger.Debug("描述统计:\n" + proc.Describe().String())

	cols := make([]processor.Column, len(p.dcfg.Impute))
	for i, c := range p.dcfg.Impute {
		cols[i] = processor.Column(c)
	}
	means, err := proc.Impute(cols...)
	if err != nil {
		return err
	}
	for _, c := range cols {
		p.logger.Info(fmt.Sprintf("列 %s 缺失值用均值 %.4f 填充", c, means[c]))
	}

	for _, g := range processor.NJMin.Groups {
		n, err := processor.CheckExclusive(proc.DF(), g)
		if err != nil {
			return err
		}
		if n > 0 {
			p.logger.Warning(fmt.Sprintf("%s: %d 行不满足虚拟变量互斥约束", g.Name, n))
		}
	}

	// 报告同时写到输出和邮件正文
	var text bytes.Buffer
	w := io.MultiWriter(p.out, &text)

	models := processor.DefaultModels()
	reports := make([]datapush.Report, 0, len(models))
	for _, m := range models {
		res, err := proc.Fit(m)
		if err != nil {
			return fmt.Errorf("%s: %w", m.Name, err)
		}
		labels := res.Labels(p.dcfg.Label)
		if err := processor.Render(w, res, p.dcfg.ResponseLabel, labels); err != nil {
			return fmt.Errorf("%s: %w", m.Name, err)
		}
		if res.CondNo > processor.CondNoWarn {
			p.logger.Warning(fmt.Sprintf("%s: 条件数 %.3g，可能存在多重共线性", m.Name, res.CondNo))
		}
		reports = append(reports, datapush.Report{Result: res, Labels: labels, YName: p.dcfg.ResponseLabel})
	}
	p.logger.Info(fmt.Sprintf("数据处理时间：%v", time.Since(t1)))

	if p.cfg.ReportXLSX != "" {
		if err := datapush.ExportExcel(p.cfg.ReportXLSX, reports); err != nil {
			return err
		}
		p.logger.Info("回归结果已导出: " + p.cfg.ReportXLSX)
	}

	if datapush.MailEnabled(p.cfg) {
		if err := datapush.SendReport(p.cfg, text.String(), p.cfg.ReportXLSX); err != nil {
			return err
		}
		p.logger.Info(fmt.Sprintf("报告已发送至 %v", p.cfg.SendEmail.To))
	}
	return nil
}

// delimiter 取配置字符串的第一个字符，空则为逗号
func delimiter(s string) rune {
	if s == "" {
		return ','
	}
	r, _ := utf8.DecodeRuneInString(s)
	return r
}
