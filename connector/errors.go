package connector

import "github.com/ceyewan/fusebox/xerrors"

// 连接器专用哨兵错误
var (
	ErrConfig      = xerrors.New("connector: invalid config")
	ErrConnection  = xerrors.New("connector: connection failed")
	ErrClientNil   = xerrors.New("connector: client not initialized")
	ErrHealthCheck = xerrors.New("connector: health check failed")
)
