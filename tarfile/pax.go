package tarfile

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	paxPath     = "path"
	paxLinkPath = "linkpath"
	paxSize     = "size"
	paxUID      = "uid"
	paxGID      = "gid"
	paxUname    = "uname"
	paxGname    = "gname"
	paxMtime    = "mtime"
	paxAtime    = "atime"
	paxCtime    = "ctime"
	paxCharset  = "charset"
	paxComment  = "comment"
	paxDevMajor = "SCHILY.devmajor"
	paxDevMinor = "SCHILY.devminor"
)

// parsePax decodes an extended header body of "<len> <key>=<value>\n"
// records, where len counts the whole record.
func parsePax(body []byte) (map[string]string, error) {
	records := make(map[string]string)
	for len(body) > 0 {
		sp := bytes.IndexByte(body, ' ')
		if sp <= 0 {
			return nil, fmt.Errorf("%w: missing length", ErrWrongPaxHeaderEntry)
		}
		n, err := strconv.Atoi(string(body[:sp]))
		if err != nil || n <= sp+1 || n > len(body) {
			return nil, fmt.Errorf("%w: record length %q", ErrWrongPaxHeaderEntry, body[:sp])
		}
		rec := body[sp+1 : n]
		body = body[n:]
		if rec[len(rec)-1] != '\n' {
			return nil, fmt.Errorf("%w: record not terminated by newline", ErrWrongPaxHeaderEntry)
		}
		key, value, ok := strings.Cut(string(rec[:len(rec)-1]), "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("%w: record %q", ErrWrongPaxHeaderEntry, rec)
		}
		records[key] = value
	}
	return records, nil
}

// applyPax overrides info with extended header records. Empty values leave
// the field as it is.
func (info *EntryInfo) applyPax(records map[string]string) error {
	for _, key := range slices.Sorted(maps.Keys(records)) {
		value := records[key]
		if value == "" {
			continue
		}
		var err error
		switch key {
		case paxPath:
			info.Name = value
		case paxLinkPath:
			info.LinkName = value
		case paxSize:
			info.Size, err = parsePaxInt(value)
			if err == nil && info.Size < 0 {
				err = errors.New("negative size")
			}
		case paxUID:
			info.OwnerID, err = parsePaxIntAs[int](value)
		case paxGID:
			info.GroupID, err = parsePaxIntAs[int](value)
		case paxUname:
			info.OwnerUserName = value
		case paxGname:
			info.OwnerGroupName = value
		case paxMtime:
			info.ModificationTime, err = parsePaxTime(value)
		case paxAtime:
			info.AccessTime, err = parsePaxTime(value)
		case paxCtime:
			info.CreationTime, err = parsePaxTime(value)
		case paxCharset:
			info.Charset = value
		case paxComment:
			info.Comment = value
		case paxDevMajor:
			info.DeviceMajor, err = parsePaxIntAs[int](value)
		case paxDevMinor:
			info.DeviceMinor, err = parsePaxIntAs[int](value)
		default:
			if info.UnknownExtendedHeaderRecords == nil {
				info.UnknownExtendedHeaderRecords = make(map[string]string)
			}
			info.UnknownExtendedHeaderRecords[key] = value
			slog.Debug("tar: keeping unknown pax record", "key", key)
		}
		if err != nil {
			return fmt.Errorf("%w: %s=%q: %v", ErrWrongPaxHeaderEntry, key, value, err)
		}
	}
	return nil
}

func parsePaxInt(s string) (int64, error) {
	return strconv.ParseInt(s, 10, 64)
}

func parsePaxIntAs[T ~int](s string) (T, error) {
	n, err := strconv.ParseInt(s, 10, strconv.IntSize)
	return T(n), err
}

// parsePaxTime parses "[-]seconds[.fraction]".
func parsePaxTime(s string) (time.Time, error) {
	secs, frac, hasFrac := strings.Cut(s, ".")
	sec, err := strconv.ParseInt(secs, 10, 64)
	if err != nil {
		return time.Time{}, err
	}
	var nsec int64
	if hasFrac {
		if frac == "" || strings.Trim(frac, "0123456789") != "" {
			return time.Time{}, fmt.Errorf("invalid fraction %q", frac)
		}
		frac = (frac + "000000000")[:9]
		nsec, _ = strconv.ParseInt(frac, 10, 64)
		if strings.HasPrefix(secs, "-") {
			nsec = -nsec
		}
	}
	return time.Unix(sec, nsec), nil
}

// formatPaxTime is the inverse of parsePaxTime, without trailing zeros in
// the fraction.
func formatPaxTime(t time.Time) string {
	sec, nsec := t.Unix(), int64(t.Nanosecond())
	if nsec == 0 {
		return strconv.FormatInt(sec, 10)
	}
	sign := ""
	if sec < 0 {
		sign = "-"
		sec = -(sec + 1)
		nsec = 1e9 - nsec
	}
	frac := strings.TrimRight(fmt.Sprintf("%09d", nsec), "0")
	return fmt.Sprintf("%s%d.%s", sign, sec, frac)
}

// paxRecords returns the extended header records needed to store info
// exactly, or nil when the ustar header alone is enough.
func paxRecords(info EntryInfo, size int64) (map[string]string, error) {
	records := make(map[string]string)
	str := func(key, value string, limit int) {
		if len(value) > limit || !isASCII(value) {
			records[key] = value
		}
	}
	num := func(key string, n, limit int64) {
		if n < 0 || n > limit {
			records[key] = strconv.FormatInt(n, 10)
		}
	}

	str(paxPath, info.Name, nameLength)
	str(paxLinkPath, info.LinkName, nameLength)
	str(paxUname, info.OwnerUserName, ownerNameLength)
	str(paxGname, info.OwnerGroupName, ownerNameLength)
	num(paxSize, size, maxOctal11)
	num(paxUID, int64(info.OwnerID), maxOctal7)
	num(paxGID, int64(info.GroupID), maxOctal7)
	if info.IsDev() {
		num(paxDevMajor, int64(info.DeviceMajor), maxOctal7)
		num(paxDevMinor, int64(info.DeviceMinor), maxOctal7)
	}
	if mt := info.ModificationTime; !mt.IsZero() {
		if mt.Nanosecond() != 0 || mt.Unix() < 0 || mt.Unix() > maxOctal11 {
			records[paxMtime] = formatPaxTime(mt)
		}
	}
	if !info.AccessTime.IsZero() {
		records[paxAtime] = formatPaxTime(info.AccessTime)
	}
	if !info.CreationTime.IsZero() {
		records[paxCtime] = formatPaxTime(info.CreationTime)
	}
	if info.Charset != "" {
		records[paxCharset] = info.Charset
	}
	if info.Comment != "" {
		records[paxComment] = info.Comment
	}
	for k, v := range info.UnknownExtendedHeaderRecords {
		records[k] = v
	}

	for k, v := range records {
		if !utf8.ValidString(k) || !utf8.ValidString(v) {
			return nil, fmt.Errorf("%w: pax record %q", ErrUTF8NonEncodable, k)
		}
		if k == "" || strings.ContainsAny(k, "=\x00") {
			return nil, fmt.Errorf("%w: invalid key %q", ErrWrongPaxHeaderEntry, k)
		}
	}
	if len(records) == 0 {
		return nil, nil
	}
	return records, nil
}

// paxBlock encodes records as an extended header entry of the given type:
// a header block followed by the padded record body.
func paxBlock(records map[string]string, flag byte) []byte {
	var body []byte
	for _, k := range slices.Sorted(maps.Keys(records)) {
		v := records[k]
		l := len(k) + len(v) + 3 // " " + "=" + "\n"
		n := 0
		for {
			p := l + len(strconv.Itoa(n))
			if p == n {
				break
			}
			n = p
		}
		body = fmt.Appendf(body, "%d %s=%s\n", n, k, v)
	}

	h := make([]byte, blockSize)
	putString(h[offName:offName+nameLength], paxHeaderName)
	putOctal(h[offMode:offMode+8], 0o644)
	putOctal(h[offUID:offUID+8], 0)
	putOctal(h[offGID:offGID+8], 0)
	putOctal(h[offSize:offSize+12], int64(len(body)))
	putOctal(h[offMtime:offMtime+12], 0)
	h[offType] = flag
	copy(h[offMagic:], ustarMagic)
	copy(h[offVersion:], ustarVersion)
	setChecksum(h)

	out := append(h, body...)
	return append(out, make([]byte, padding(int64(len(body))))...)
}
