package state

import "fmt"

var (
	stipendModuleKeyBytes     = []byte("stipend/module")
	membershipSupplyKeyBytes  = []byte("membership/supply")
	tokenMintedTotalKeyBytes  = []byte("token/minted/total")
	stipendSnapshotKeyFmt     = "stipend/snapshot/%020d"
	stipendParticipantKeyFmt  = "stipend/participant/%020d"
	stipendPeriodKeyFmt       = "stipend/period/%020d"
	membershipOwnerKeyFmt     = "membership/owner/%020d"
	membershipIDByOwnerKeyFmt = "membership/index/%x"
	tokenBalanceKeyFmt        = "token/balance/%x"
	tokenMintedDayKeyFmt      = "token/minted/day/%s"
)

func stipendSnapshotKey(period uint64) []byte {
	return []byte(fmt.Sprintf(stipendSnapshotKeyFmt, period))
}

func stipendParticipantKey(id uint64) []byte {
	return []byte(fmt.Sprintf(stipendParticipantKeyFmt, id))
}

func stipendPeriodKey(period uint64) []byte {
	return []byte(fmt.Sprintf(stipendPeriodKeyFmt, period))
}

func membershipOwnerKey(id uint64) []byte {
	return []byte(fmt.Sprintf(membershipOwnerKeyFmt, id))
}

func membershipIDByOwnerKey(owner [20]byte) []byte {
	return []byte(fmt.Sprintf(membershipIDByOwnerKeyFmt, owner))
}

func tokenBalanceKey(addr [20]byte) []byte {
	return []byte(fmt.Sprintf(tokenBalanceKeyFmt, addr))
}

func tokenMintedDayKey(day string) []byte {
	return []byte(fmt.Sprintf(tokenMintedDayKeyFmt, day))
}
