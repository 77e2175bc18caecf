package transfer

type MirrorAvatarPayload struct {
	AccountID string `json:"account_id"`
}
