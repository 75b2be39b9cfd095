package discovery

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/uartcmd/uartcmd-go/pkg/command"
	"github.com/uartcmd/uartcmd-go/pkg/version"
)

// TXTRecordMap maps TXT keys to values.
type TXTRecordMap map[string]string

// ConsoleInfo is the console state published in TXT records.
type ConsoleInfo struct {
	Mode       command.Mode
	MaxAddress int
}

// InfoFromState converts a command state.
func InfoFromState(s command.State) ConsoleInfo {
	return ConsoleInfo{Mode: s.Mode, MaxAddress: s.MaxAddress}
}

// EncodeTXT creates TXT records for a console.
func EncodeTXT(info ConsoleInfo) TXTRecordMap {
	return TXTRecordMap{
		TXTKeyMode:       info.Mode.String(),
		TXTKeyMaxAddress: strconv.Itoa(info.MaxAddress),
		TXTKeyVersion:    version.Current,
	}
}

// DecodeTXT parses TXT records of a console. A missing version is accepted;
// a present one must share the local major version.
func DecodeTXT(txt TXTRecordMap) (ConsoleInfo, error) {
	var info ConsoleInfo

	if ver, ok := txt[TXTKeyVersion]; ok {
		if _, err := version.Check(ver); err != nil {
			return info, err
		}
	}

	modeStr, ok := txt[TXTKeyMode]
	if !ok {
		return info, fmt.Errorf("%w: %s", ErrMissingTXT, TXTKeyMode)
	}
	mode, err := command.ParseMode(modeStr)
	if err != nil {
		return info, err
	}
	info.Mode = mode

	maxStr, ok := txt[TXTKeyMaxAddress]
	if !ok {
		return info, fmt.Errorf("%w: %s", ErrMissingTXT, TXTKeyMaxAddress)
	}
	n, err := strconv.Atoi(maxStr)
	if err != nil || n < 0 {
		return info, fmt.Errorf("invalid %s: %q", TXTKeyMaxAddress, maxStr)
	}
	info.MaxAddress = n

	return info, nil
}

// TXTRecordsToStrings converts a TXTRecordMap to sorted "key=value" strings.
func TXTRecordsToStrings(txt TXTRecordMap) []string {
	result := make([]string, 0, len(txt))
	for k, v := range txt {
		result = append(result, k+"="+v)
	}
	sort.Strings(result)
	return result
}

// StringsToTXTRecords parses "key=value" strings into a TXTRecordMap.
func StringsToTXTRecords(strs []string) TXTRecordMap {
	txt := make(TXTRecordMap)
	for _, s := range strs {
		k, v, _ := strings.Cut(s, "=")
		if k != "" {
			txt[k] = v
		}
	}
	return txt
}

// ValidateInstanceName checks if an instance name is valid for mDNS.
func ValidateInstanceName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty name", ErrInstanceNameTooLong)
	}
	if len(name) > MaxInstanceNameLen {
		return ErrInstanceNameTooLong
	}
	return nil
}
