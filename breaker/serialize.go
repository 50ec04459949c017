package breaker

import (
	"encoding/json"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/ceyewan/fusebox/xerrors"
)

// ErrUnsupportedSerializer 不支持的序列化格式
var ErrUnsupportedSerializer = xerrors.New("breaker: unsupported serializer")

// serializer cache 驱动的记录编解码接口（内部使用）
type serializer interface {
	Marshal(value any) ([]byte, error)
	Unmarshal(data []byte, dest any) error
}

// jsonSerializer JSON 编解码，兼容性最好
type jsonSerializer struct{}

func (jsonSerializer) Marshal(value any) ([]byte, error) {
	return json.Marshal(value)
}

func (jsonSerializer) Unmarshal(data []byte, dest any) error {
	return json.Unmarshal(data, dest)
}

// msgpackSerializer MessagePack 二进制编解码，体积更小
type msgpackSerializer struct{}

func (msgpackSerializer) Marshal(value any) ([]byte, error) {
	return msgpack.Marshal(value)
}

func (msgpackSerializer) Unmarshal(data []byte, dest any) error {
	return msgpack.Unmarshal(data, dest)
}

// newSerializer 按名称创建序列化器
//
// 支持的格式:
//   - "json"（默认）
//   - "msgpack"
func newSerializer(name string) (serializer, error) {
	switch name {
	case "json", "":
		return jsonSerializer{}, nil
	case "msgpack":
		return msgpackSerializer{}, nil
	default:
		return nil, xerrors.Wrapf(ErrUnsupportedSerializer, "%q", name)
	}
}
