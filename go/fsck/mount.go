package fsck

import "github.com/moby/sys/mountinfo"

// deviceMounted reports whether the device backs a live mount. Best-effort:
// an unreadable mount table just means no warning.
func deviceMounted(device string) bool {
	mounts, err := mountinfo.GetMounts(nil)
	if err != nil {
		return false
	}
	for _, m := range mounts {
		if m.Source == device {
			return true
		}
	}
	return false
}
