// Package message decodes and encodes the header messages of HDF5 object
// headers.
//
// [Parse] decodes the messages needed to navigate a file and describe its
// datasets: dataspace, datatype, link, link info, group info, symbol table
// and continuation. Other types come back as [Unknown] with their raw
// bytes.
//
// Types implementing [Serializable] can be written into new object headers.
// Writers cover the dataspace, datatype, link, link info and group info
// messages and a contiguous data layout. An [Unknown] writes its raw bytes
// back, so rewriting a header keeps messages this package never decoded.
package message
