package executor

import (
	"bufio"
	"io"
	"os"
	"os/user"
	"strconv"
	"strings"
	"syscall"
)

/*
	Identity mapping: the init child's user namespace maps the external
	identity (the host uid the command's files should appear to belong
	to) onto inner root, and backs inner ids 1..n with the invoking
	user's subordinate range from `/etc/subuid` / `/etc/subgid`.

	The tables are consulted once per invocation.  A missing entry or a
	range too small to cover the command's user-id raises `MappingError`;
	ids are never silently clamped to whatever happens to be available.
*/

type subidRange struct {
	start int
	count int
}

// Mappings builds the uid and gid maps for a user namespace whose inner
// id `innerID` must be usable.  Panics with MappingError when it can't.
func Mappings(externalUID, externalGID, innerID int) (uids, gids []syscall.SysProcIDMap) {
	uids = buildIdMap("/etc/subuid", externalUID, innerID)
	gids = buildIdMap("/etc/subgid", externalGID, innerID)
	return
}

func buildIdMap(tablePath string, externalID, innerID int) []syscall.SysProcIDMap {
	rng, ok := lookupSubidRange(tablePath)
	if !ok {
		// real root needs no grants from the subordinate tables.
		if os.Getuid() == 0 {
			rng = subidRange{start: 1, count: 65535}
		} else {
			panic(MappingError.New("no subordinate id range for this user in %q", tablePath))
		}
	}
	if innerID != 0 && innerID > rng.count {
		panic(MappingError.New("subordinate range in %q too small: need inner id %d, range covers %d", tablePath, innerID, rng.count))
	}
	return []syscall.SysProcIDMap{
		{ContainerID: 0, HostID: externalID, Size: 1},
		{ContainerID: 1, HostID: rng.start, Size: rng.count},
	}
}

func lookupSubidRange(tablePath string) (subidRange, bool) {
	f, err := os.Open(tablePath)
	if err != nil {
		return subidRange{}, false
	}
	defer f.Close()
	return findSubidRange(f, ownerNames()...)
}

/*
	Scans an `/etc/subuid`-format table (`owner:start:count` lines,
	owner by name or numeric id) for the first range granted to any of
	the given owner names.
*/
func findSubidRange(r io.Reader, owners ...string) (subidRange, bool) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Split(line, ":")
		if len(fields) != 3 {
			continue
		}
		matched := false
		for _, owner := range owners {
			if fields[0] == owner {
				matched = true
				break
			}
		}
		if !matched {
			continue
		}
		start, err1 := strconv.Atoi(fields[1])
		count, err2 := strconv.Atoi(fields[2])
		if err1 != nil || err2 != nil || count <= 0 {
			continue
		}
		return subidRange{start: start, count: count}, true
	}
	return subidRange{}, false
}

func ownerNames() []string {
	names := []string{strconv.Itoa(os.Getuid())}
	if u, err := user.Current(); err == nil && u.Username != "" {
		names = append(names, u.Username)
	}
	return names
}
