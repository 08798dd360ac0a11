package fsck

import (
	"testing"

	"github.com/chzyer/test"
)

func TestDeviceMounted(t *testing.T) {
	defer test.New(t)

	test.True(!deviceMounted("/dev/no-such-device-for-mfsck"))
}
