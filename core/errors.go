package core

// DomainError 是领域层的统一错误类型。
//
// 设计原则：
//   - 所有领域层错误都使用此类型
//   - 提供错误代码（Code）和消息（Message）
//   - 支持错误检查函数（IsXXX）
//
// 传播策略（引擎约定）：
//   - DATA_UNAVAILABLE：触发兜底（热度池），单召回源失败贡献空池而非中断请求；
//     所有召回源全部失败时才以此错误结束请求
//   - UPSTREAM_MODEL_FAILURE：rerank / embedding 服务异常，降级为上一阶段输出
//   - INVALID_REQUEST：非法场景 / limit，在任何检索之前拒绝
//   - CONSISTENCY_VIOLATION：维度不符、候选合并冲突，记录日志并丢弃该候选
type DomainError struct {
	Code    string // 错误代码（如 "NOT_FOUND", "INVALID_REQUEST"）
	Message string // 错误消息
	Module  string // 模块名称（如 "store", "vector", "engine"）
}

func (e *DomainError) Error() string {
	return e.Message
}

// GetDomainError 获取 DomainError，如果不是则返回 nil
func GetDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	if domainErr, ok := err.(*DomainError); ok {
		return domainErr
	}
	return nil
}

// NewDomainError 创建新的领域错误
func NewDomainError(module, code, message string) *DomainError {
	return &DomainError{
		Module:  module,
		Code:    code,
		Message: message,
	}
}

// 错误代码常量
const (
	ErrorCodeNotFound             = "NOT_FOUND"              // 资源不存在
	ErrorCodeNotSupported         = "NOT_SUPPORTED"          // 操作不支持
	ErrorCodeUnavailable          = "UNAVAILABLE"            // 服务不可用
	ErrorCodeInternalError        = "INTERNAL_ERROR"         // 内部错误
	ErrorCodeDataUnavailable      = "DATA_UNAVAILABLE"       // 无可用数据（触发兜底）
	ErrorCodeUpstreamModelFailure = "UPSTREAM_MODEL_FAILURE" // 上游模型服务异常（降级）
	ErrorCodeInvalidRequest       = "INVALID_REQUEST"        // 请求非法（检索前拒绝）
	ErrorCodeConsistency          = "CONSISTENCY_VIOLATION"  // 一致性冲突（丢弃候选）
)

// 模块名称常量
const (
	ModuleStore   = "store"   // KV 存储模块
	ModuleVector  = "vector"  // 向量存储模块
	ModuleLedger  = "ledger"  // 行为账本模块
	ModuleEngine  = "engine"  // 编排模块
	ModulePrefs   = "prefs"   // 偏好聚合模块
	ModuleRerank  = "rerank"  // 重排模块
	ModuleService = "service" // 模型服务模块
	ModuleFeature = "feature" // 特征模块
)

func isCode(err error, code string) bool {
	if domainErr := GetDomainError(err); domainErr != nil {
		return domainErr.Code == code
	}
	return false
}

// IsNotFound 检查错误是否为 NOT_FOUND
func IsNotFound(err error) bool { return isCode(err, ErrorCodeNotFound) }

// IsNotSupported 检查错误是否为 NOT_SUPPORTED
func IsNotSupported(err error) bool { return isCode(err, ErrorCodeNotSupported) }

// IsUnavailable 检查错误是否为 UNAVAILABLE
func IsUnavailable(err error) bool { return isCode(err, ErrorCodeUnavailable) }

// IsDataUnavailable 检查错误是否为 DATA_UNAVAILABLE
func IsDataUnavailable(err error) bool { return isCode(err, ErrorCodeDataUnavailable) }

// IsUpstreamModelFailure 检查错误是否为 UPSTREAM_MODEL_FAILURE
func IsUpstreamModelFailure(err error) bool { return isCode(err, ErrorCodeUpstreamModelFailure) }

// IsInvalidRequest 检查错误是否为 INVALID_REQUEST
func IsInvalidRequest(err error) bool { return isCode(err, ErrorCodeInvalidRequest) }

// IsConsistencyViolation 检查错误是否为 CONSISTENCY_VIOLATION
func IsConsistencyViolation(err error) bool { return isCode(err, ErrorCodeConsistency) }
