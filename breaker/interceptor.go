package breaker

import (
	"context"

	"google.golang.org/grpc"
)

// KeyFunc 从 gRPC 调用上下文中提取熔断器名称
type KeyFunc func(ctx context.Context, fullMethod string, cc *grpc.ClientConn) string

// TargetKey 按目标服务熔断
// 返回示例: "etcd:///logic-service"
func TargetKey() KeyFunc {
	return func(ctx context.Context, fullMethod string, cc *grpc.ClientConn) string {
		return cc.Target()
	}
}

// MethodKey 按方法熔断
// 返回示例: "/pkg.Service/Method"
func MethodKey() KeyFunc {
	return func(ctx context.Context, fullMethod string, cc *grpc.ClientConn) string {
		return fullMethod
	}
}

// CompositeKey 组合多个 KeyFunc，使用 "@" 分隔
// 返回示例: "etcd:///logic-service@/pkg.Service/Method"
func CompositeKey(primary KeyFunc, secondary ...KeyFunc) KeyFunc {
	return func(ctx context.Context, fullMethod string, cc *grpc.ClientConn) string {
		result := primary(ctx, fullMethod, cc)
		for _, kf := range secondary {
			result += "@" + kf(ctx, fullMethod, cc)
		}
		return result
	}
}

// InterceptorOption 拦截器选项
type InterceptorOption func(*interceptorOptions)

type interceptorOptions struct {
	keyFunc KeyFunc
	make    []MakeOption
}

// WithKeyFunc 设置熔断器名称的提取策略，默认按目标服务
func WithKeyFunc(kf KeyFunc) InterceptorOption {
	return func(o *interceptorOptions) {
		if kf != nil {
			o.keyFunc = kf
		}
	}
}

// WithMakeOptions 透传给 Manager.Make 的选项（配置、策略、存储）
func WithMakeOptions(opts ...MakeOption) InterceptorOption {
	return func(o *interceptorOptions) {
		o.make = append(o.make, opts...)
	}
}

func applyInterceptorOptions(opts []InterceptorOption) *interceptorOptions {
	o := &interceptorOptions{keyFunc: TargetKey()}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// UnaryClientInterceptor 返回 gRPC 一元调用客户端拦截器
// 为每个调用按 KeyFunc 提取的名称提供熔断保护。
//
// 使用示例:
//
//	conn, _ := grpc.NewClient(
//		"localhost:9001",
//		grpc.WithUnaryInterceptor(breaker.UnaryClientInterceptor(mgr)),
//	)
func UnaryClientInterceptor(mgr Manager, opts ...InterceptorOption) grpc.UnaryClientInterceptor {
	o := applyInterceptorOptions(opts)

	return func(ctx context.Context, method string, req, reply any, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, callOpts ...grpc.CallOption) error {
		brk, err := mgr.Make(o.keyFunc(ctx, method, cc), o.make...)
		if err != nil {
			return err
		}

		_, err = brk.Call(ctx, func(ctx context.Context) (any, error) {
			return nil, invoker(ctx, method, req, reply, cc, callOpts...)
		})
		return err
	}
}

// StreamClientInterceptor 返回 gRPC 流式调用客户端拦截器
// 只保护建流阶段，流建立后的收发不再计入熔断统计。
func StreamClientInterceptor(mgr Manager, opts ...InterceptorOption) grpc.StreamClientInterceptor {
	o := applyInterceptorOptions(opts)

	return func(ctx context.Context, desc *grpc.StreamDesc, cc *grpc.ClientConn, method string, streamer grpc.Streamer, callOpts ...grpc.CallOption) (grpc.ClientStream, error) {
		brk, err := mgr.Make(o.keyFunc(ctx, method, cc), o.make...)
		if err != nil {
			return nil, err
		}

		result, err := brk.Call(ctx, func(ctx context.Context) (any, error) {
			return streamer(ctx, desc, cc, method, callOpts...)
		})
		if err != nil {
			return nil, err
		}
		return result.(grpc.ClientStream), nil
	}
}
