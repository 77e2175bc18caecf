package queue

import (
	"github.com/maheshrc27/social-link-api/internal/service"
)

type Queue struct {
	av service.AvatarService
}

func NewQueue(av service.AvatarService) *Queue {
	return &Queue{
		av: av,
	}
}

const TaskTypeMirrorAvatar = "account:mirror_avatar"
