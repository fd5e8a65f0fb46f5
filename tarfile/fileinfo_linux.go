package tarfile

import (
	"io/fs"
	"os/user"
	"strconv"
	"syscall"
	"time"

	"golang.org/x/sys/unix"
)

// statInfo fills owner, access time and device numbers from the stat
// record behind fi.
func statInfo(info *EntryInfo, fi fs.FileInfo) {
	stat, ok := fi.Sys().(*syscall.Stat_t)
	if !ok {
		return
	}
	info.OwnerID = int(stat.Uid)
	info.GroupID = int(stat.Gid)
	info.AccessTime = time.Unix(int64(stat.Atim.Sec), int64(stat.Atim.Nsec))

	if u, err := user.LookupId(strconv.Itoa(info.OwnerID)); err == nil {
		info.OwnerUserName = u.Username
	}
	if g, err := user.LookupGroupId(strconv.Itoa(info.GroupID)); err == nil {
		info.OwnerGroupName = g.Name
	}

	if info.IsDev() {
		info.DeviceMajor = int(unix.Major(uint64(stat.Rdev)))
		info.DeviceMinor = int(unix.Minor(uint64(stat.Rdev)))
	}
}
