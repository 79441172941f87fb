// Command libh5flat builds the shim as a C shared library:
//
//	go build -buildmode=c-shared -o libh5flat.so ./cmd/libh5flat
//
// Every entry point takes and returns C scalars only. Identifiers are
// int64_t and failures are reported as -1.
package main

// #include <stdint.h>
import "C"

import (
	"fmt"
	"unsafe"

	"github.com/robert-malhotra/h5flat/hdf5"
	"github.com/robert-malhotra/h5flat/internal/cmodel"
	"github.com/robert-malhotra/h5flat/shim"
)

// The native type table is keyed on the widths in cmodel, which must
// match the C compiler this library is linked with.
func init() {
	widths := map[cmodel.CType]int{
		cmodel.CChar:     int(C.sizeof_char),
		cmodel.CShort:    int(C.sizeof_short),
		cmodel.CInt:      int(C.sizeof_int),
		cmodel.CLong:     int(C.sizeof_long),
		cmodel.CLongLong: int(C.sizeof_longlong),
		cmodel.CFloat:    int(C.sizeof_float),
		cmodel.CDouble:   int(C.sizeof_double),
	}
	for _, ct := range cmodel.CTypes() {
		if got, want := cmodel.Sizeof(ct), widths[ct]; got != want {
			panic(fmt.Sprintf("libh5flat: sizeof(%s) is %d, data model says %d", ct, want, got))
		}
	}
}

//export h5flat_group_n_members
func h5flat_group_n_members(group C.int64_t, nlinks *C.uint64_t) C.int32_t {
	return C.int32_t(shim.GroupMemberCount(int64(group), (*uint64)(unsafe.Pointer(nlinks))))
}

//export h5flat_type_id
func h5flat_type_id(typeClass, size, sign C.int) C.int64_t {
	return C.int64_t(shim.ResolveNativeType(int32(typeClass), int32(size), int32(sign)))
}

//export h5flat_dataset_space
func h5flat_dataset_space(dataset C.int64_t) C.int64_t {
	return C.int64_t(shim.DatasetSpace(int64(dataset)))
}

//export h5flat_native_type
func h5flat_native_type(dataset C.int64_t, direction C.int) C.int64_t {
	return C.int64_t(shim.NativeTypeOf(int64(dataset), int32(direction)))
}

//export h5flat_open_file
func h5flat_open_file(name *C.char, readwrite C.int) C.int64_t {
	mode := hdf5.ReadOnly
	if readwrite != 0 {
		mode = hdf5.ReadWrite
	}
	return result(hdf5.Open(C.GoString(name), mode))
}

//export h5flat_create_file
func h5flat_create_file(name *C.char) C.int64_t {
	return result(hdf5.Create(C.GoString(name)))
}

//export h5flat_open_group
func h5flat_open_group(loc C.int64_t, path *C.char) C.int64_t {
	return result(hdf5.GroupOpen(hdf5.ID(loc), C.GoString(path)))
}

//export h5flat_open_dataset
func h5flat_open_dataset(loc C.int64_t, path *C.char) C.int64_t {
	return result(hdf5.DatasetOpen(hdf5.ID(loc), C.GoString(path)))
}

//export h5flat_close
func h5flat_close(id C.int64_t) C.int32_t {
	if err := hdf5.Close(hdf5.ID(id)); err != nil {
		return C.int32_t(shim.Fail)
	}
	return C.int32_t(shim.Succeed)
}

// h5flat_sizeof returns the width the native type table assumes for a C
// type (0 char, 1 short, 2 int, 3 long, 4 long long, 5 float, 6 double),
// or 0 for an unknown code.
//
//export h5flat_sizeof
func h5flat_sizeof(ctype C.int) C.int {
	return C.int(cmodel.Sizeof(cmodel.CType(ctype)))
}

func result(id hdf5.ID, err error) C.int64_t {
	if err != nil {
		return C.int64_t(shim.Fail)
	}
	return C.int64_t(id)
}

func main() {}
