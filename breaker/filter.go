package breaker

import "github.com/ceyewan/fusebox/xerrors"

// ErrorMatcher 错误分类谓词
//
// Go 没有运行时的异常类型树，分类通过调用方提供的谓词完成，
// 祖先匹配对应 errors.Is / errors.As 的链式解包。
type ErrorMatcher func(error) bool

// MatchError 返回匹配 errors.Is(err, target) 的谓词
func MatchError(target error) ErrorMatcher {
	return func(err error) bool {
		return xerrors.Is(err, target)
	}
}

// MatchType 返回匹配 errors.As 目标类型的谓词
//
//	breaker.MatchType[*net.OpError]()
func MatchType[T error]() ErrorMatcher {
	return func(err error) bool {
		var target T
		return xerrors.As(err, &target)
	}
}

// errorFilter 错误过滤器（内部使用）
//
// 一个错误被计入失败，当且仅当它不匹配任何 ignore 谓词，
// 且（record 名单为空，或匹配某个 record 谓词）。ignore 优先。
// 被忽略的错误如同调用从未发生：不改计数、不迁移状态、不发事件。
type errorFilter struct {
	ignore []ErrorMatcher
	record []ErrorMatcher
}

// shouldRecord 判断错误是否计入失败
func (f errorFilter) shouldRecord(err error) bool {
	for _, match := range f.ignore {
		if match(err) {
			return false
		}
	}
	if len(f.record) == 0 {
		return true
	}
	for _, match := range f.record {
		if match(err) {
			return true
		}
	}
	return false
}
