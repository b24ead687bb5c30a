package errors

import (
	"net/http"

	"google.golang.org/grpc/codes"
)

// OK represents a successful operation.
var OK = Register(&Errno{
	Code:      0,
	HTTP:      http.StatusOK,
	GRPCCode:  codes.OK,
	MessageEN: "Success",
	MessageZH: "成功",
})

var (
	// ErrInvalidParam indicates an invalid parameter.
	ErrInvalidParam = newRequestErr(ServiceCommon, 1, "Invalid parameter", "参数无效")

	// ErrNotFound indicates a generic missing resource.
	ErrNotFound = newNotFoundErr(ServiceCommon, 0, "Resource not found", "资源不存在")

	// ErrInternal indicates an unexpected internal failure.
	ErrInternal = newInternalErr(ServiceCommon, 0, "Internal server error", "服务器内部错误")

	// ErrConfigInvalid indicates an invalid configuration value.
	ErrConfigInvalid = Register(New(MakeCode(ServiceCommon, CategoryConfig, 1), http.StatusInternalServerError, codes.Internal, "Invalid configuration", "配置无效"))
)
