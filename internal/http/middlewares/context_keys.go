package middlewares

// Keys stored on *gin.Context.
const (
	CtxRequestID = "request_id"
	CtxUser      = "auth.user"
)
