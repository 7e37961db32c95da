package response

const (
	CodeOK                 = 0
	CodeBadRequest         = 400
	CodeUnauthorized       = 401
	CodeForbidden          = 403
	CodeNotFound           = 404
	CodePreconditionFailed = 412
	CodeTooManyRequests    = 429
	CodeInternal           = 500
)

// 可调用接口错误码（客户端按 code 字段分支处理）
const (
	CallableUnauthenticated    = "unauthenticated"
	CallableInvalidArgument    = "invalid-argument"
	CallableNotFound           = "not-found"
	CallablePermissionDenied   = "permission-denied"
	CallableFailedPrecondition = "failed-precondition"
	CallableResourceExhausted  = "resource-exhausted"
	CallableInternal           = "internal"
)

var callableStatusCodes = map[string]int{
	CallableUnauthenticated:    CodeUnauthorized,
	CallableInvalidArgument:    CodeBadRequest,
	CallableNotFound:           CodeNotFound,
	CallablePermissionDenied:   CodeForbidden,
	CallableFailedPrecondition: CodePreconditionFailed,
	CallableResourceExhausted:  CodeTooManyRequests,
	CallableInternal:           CodeInternal,
}

// StatusForCallable 返回可调用错误码对应的业务状态码，未知码按 internal 处理
func StatusForCallable(callable string) int {
	if code, ok := callableStatusCodes[callable]; ok {
		return code
	}
	return CodeInternal
}
