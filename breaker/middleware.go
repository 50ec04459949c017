package breaker

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ceyewan/fusebox/xerrors"
)

// MiddlewareOption Gin 中间件选项
type MiddlewareOption func(*middlewareOptions)

type middlewareOptions struct {
	statusThreshold int
	make            []MakeOption
}

// WithStatusThreshold 设置计入失败的最小 HTTP 状态码（默认 500）
func WithStatusThreshold(status int) MiddlewareOption {
	return func(o *middlewareOptions) {
		if status > 0 {
			o.statusThreshold = status
		}
	}
}

// WithMiddlewareMakeOptions 透传给 Manager.Make 的选项
func WithMiddlewareMakeOptions(opts ...MakeOption) MiddlewareOption {
	return func(o *middlewareOptions) {
		o.make = append(o.make, opts...)
	}
}

// errStatusFailure handler 以失败状态码结束时计入的内部错误
var errStatusFailure = xerrors.New("breaker: upstream handler failed")

// GinMiddleware 返回基于熔断器的 Gin 中间件
//
// 每个请求经由名为 name 的熔断器执行；handler 写出的状态码达到阈值
// （默认 500）时计为一次失败。熔断拒绝时返回 503，若解析到降级值，
// 以 JSON 形式写入响应体。
//
// 使用示例:
//
//	r := gin.Default()
//	r.GET("/quotes", breaker.GinMiddleware(mgr, "quotes.api"), listQuotes)
func GinMiddleware(mgr Manager, name string, opts ...MiddlewareOption) gin.HandlerFunc {
	o := &middlewareOptions{statusThreshold: http.StatusInternalServerError}
	for _, opt := range opts {
		opt(o)
	}

	return func(c *gin.Context) {
		brk, err := mgr.Make(name, o.make...)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		_, err = brk.Call(c.Request.Context(), func(ctx context.Context) (any, error) {
			c.Next()
			if c.Writer.Status() >= o.statusThreshold {
				return nil, errStatusFailure
			}
			return nil, nil
		})

		if err == nil || xerrors.Is(err, errStatusFailure) {
			// handler 已经写出了响应
			return
		}

		var openErr *OpenError
		if xerrors.As(err, &openErr) {
			if openErr.HasFallback {
				c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{
					"error":    openErr.Error(),
					"fallback": openErr.FallbackValue,
				})
				return
			}
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": openErr.Error()})
			return
		}

		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
