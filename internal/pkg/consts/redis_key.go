package consts

const (
	IMOnlineUsersKey = "im:online"
	IMSessionKey     = "im:session:"
	TokenRevokedKey  = "token:revoked:"
)
