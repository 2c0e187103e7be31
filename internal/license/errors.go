package license

import "errors"

// 许可证核心的错误分类，调用方用 errors.Is 区分处理
var (
	ErrKeyIO             = errors.New("key io failure")
	ErrKeyGeneration     = errors.New("key generation failure")
	ErrNotInitialized    = errors.New("key store not initialized")
	ErrInvalidAttributes = errors.New("invalid license attributes")
	ErrSigning           = errors.New("license signing failure")
)
