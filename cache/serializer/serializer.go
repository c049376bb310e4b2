// Package serializer 提供缓存值跨进程存取时的编解码能力。
package serializer

import (
	"encoding/json"
	"errors"

	"github.com/vmihailenco/msgpack/v5"
)

// ErrUnsupportedSerializer 不支持的序列化器类型
var ErrUnsupportedSerializer = errors.New("serializer: unsupported type")

// Serializer 定义序列化接口
type Serializer interface {
	Marshal(value any) ([]byte, error)
	Unmarshal(data []byte, dest any) error
}

// JSONSerializer JSON 序列化器，兼容性最好，便于人工排查缓存内容
type JSONSerializer struct{}

func (j *JSONSerializer) Marshal(value any) ([]byte, error) {
	return json.Marshal(value)
}

func (j *JSONSerializer) Unmarshal(data []byte, dest any) error {
	return json.Unmarshal(data, dest)
}

// MessagePackSerializer MessagePack 二进制序列化器，
// 速度和体积都优于 JSON，适合高吞吐场景
type MessagePackSerializer struct{}

func (m *MessagePackSerializer) Marshal(value any) ([]byte, error) {
	return msgpack.Marshal(value)
}

func (m *MessagePackSerializer) Unmarshal(data []byte, dest any) error {
	return msgpack.Unmarshal(data, dest)
}

// New 创建序列化器
//
// 支持的序列化器类型:
//   - "json"（默认）
//   - "msgpack"
func New(serializerType string) (Serializer, error) {
	switch serializerType {
	case "json", "":
		return &JSONSerializer{}, nil
	case "msgpack":
		return &MessagePackSerializer{}, nil
	default:
		return nil, ErrUnsupportedSerializer
	}
}
