package consts

const (
	DefaultAvatarURL = "default_avatar.png"
)

// 自定义 WebSocket 关闭码
const (
	CloseAuthFailed = 4401
	CloseSuperseded = 4409
)
