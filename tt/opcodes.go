package tt

// magicPrefix begins every TT request; the op byte that follows selects
// the command.
const magicPrefix byte = 0xC8

// Operation codes.
const (
	opPut      byte = 10
	opPutKeep  byte = 11
	opPutCat   byte = 12
	opPutShl   byte = 13
	opPutNr    byte = 18
	opOut      byte = 20
	opGet      byte = 30
	opMGet     byte = 31
	opVsiz     byte = 38
	opIterInit byte = 50
	opIterNext byte = 51
	opFwmKeys  byte = 58
	opAddInt   byte = 60
	opAddDbl   byte = 61
	opExt      byte = 68
	opSync     byte = 70
	opOptimize byte = 71
	opVanish   byte = 72
	opCopy     byte = 73
	opRestore  byte = 74
	opSetMst   byte = 78
	opRnum     byte = 80
	opSize     byte = 81
	opStat     byte = 88
	opMisc     byte = 90
)

// Response status byte values.
const (
	statusOK   byte = 0x00
	statusMiss byte = 0x01
)

// Ext locking modes: the two record/global flags are
// mutually exclusive. ExtNoUpdateLog occupies a separate bit so it can
// be combined with either lock mode without colliding with it.
const (
	ExtLockNone    uint32 = 0
	ExtLockRecord  uint32 = 1 << 0
	ExtLockGlobal  uint32 = 1 << 1
	ExtNoUpdateLog uint32 = 1 << 2
)

// MiscNoUpdateLog is the misc opts bit meaning "do not update the
// replication log" for this command.
const MiscNoUpdateLog uint32 = 1 << 0
