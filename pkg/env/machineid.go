package env

import (
	"github.com/denisbrodbeck/machineid"
	"github.com/golang/glog"
	"github.com/google/uuid"

	"github.com/robotalks/vndmesh/pkg/mesh"
)

// namespace for device UUIDs derived from machine ID.
var deviceNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/robotalks/vndmesh"))

// MachineID retrieves the unique ID identifying the machine.
func MachineID() (string, error) {
	return machineid.ProtectedID("vndmesh")
}

// DeviceUUID derives a stable device UUID for the node address on this
// machine. A random UUID is used if machine ID is not available.
func DeviceUUID(addr mesh.Address) uuid.UUID {
	id, err := MachineID()
	if err != nil {
		glog.Warningf("machine ID unavailable, using random device UUID: %v", err)
		return uuid.New()
	}
	return uuid.NewSHA1(deviceNamespace, []byte(id+"/"+addr.String()))
}
