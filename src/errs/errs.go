// Package errs 定义分析流程中的错误分类
package errs

import (
	"errors"
	"fmt"
)

// 错误类别，调用方用 errors.Is 判断
var (
	ErrDataAccess     = errors.New("data access error")     // 文件缺失或无法读取
	ErrInvalidInput   = errors.New("invalid input error")   // 缺少列、整列缺失等
	ErrSingularMatrix = errors.New("singular matrix error") // 设计矩阵秩不足
)

// ErrLabelMismatch 报告标签数量与系数数量不一致
var ErrLabelMismatch = fmt.Errorf("%w: label count does not match design columns", ErrInvalidInput)

// DataAccess 包装文件读取相关的错误
func DataAccess(path string, err error) error {
	if err == nil {
		return fmt.Errorf("%w: %s", ErrDataAccess, path)
	}
	return fmt.Errorf("%w: %s: %v", ErrDataAccess, path, err)
}

// InvalidInput 生成输入数据错误
func InvalidInput(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// Singular 生成秩不足错误
func Singular(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrSingularMatrix, fmt.Sprintf(format, args...))
}
