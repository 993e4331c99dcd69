package catalog

import (
	"fmt"
	"sync"

	"github.com/jhump/protoreflect/desc"
	"github.com/jhump/protoreflect/desc/protoprint"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protodesc"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/reflect/protoregistry"
	"google.golang.org/protobuf/types/descriptorpb"
	"google.golang.org/protobuf/types/dynamicpb"
)

const (
	protoFile      = "duby/catalog.proto"
	protoPackage   = "duby.catalog"
	catalogMessage = "Catalog"
	entryMessage   = "Intrinsic"
)

func field(name string, number int32, typ descriptorpb.FieldDescriptorProto_Type, label descriptorpb.FieldDescriptorProto_Label) *descriptorpb.FieldDescriptorProto {
	return &descriptorpb.FieldDescriptorProto{
		Name:     proto.String(name),
		JsonName: proto.String(name),
		Number:   proto.Int32(number),
		Type:     typ.Enum(),
		Label:    label.Enum(),
	}
}

func fileDescriptorProto() *descriptorpb.FileDescriptorProto {
	str := descriptorpb.FieldDescriptorProto_TYPE_STRING
	optional := descriptorpb.FieldDescriptorProto_LABEL_OPTIONAL
	repeated := descriptorpb.FieldDescriptorProto_LABEL_REPEATED

	intrinsics := field("intrinsics", 1, descriptorpb.FieldDescriptorProto_TYPE_MESSAGE, repeated)
	intrinsics.TypeName = proto.String("." + protoPackage + "." + entryMessage)

	return &descriptorpb.FileDescriptorProto{
		Name:    proto.String(protoFile),
		Package: proto.String(protoPackage),
		Syntax:  proto.String("proto3"),
		MessageType: []*descriptorpb.DescriptorProto{
			{
				Name: proto.String(entryMessage),
				Field: []*descriptorpb.FieldDescriptorProto{
					field("owner", 1, str, optional),
					field("name", 2, str, optional),
					field("params", 3, str, repeated),
					field("returns", 4, str, optional),
				},
			},
			{
				Name:  proto.String(catalogMessage),
				Field: []*descriptorpb.FieldDescriptorProto{intrinsics},
			},
		},
	}
}

var schemaFile = sync.OnceValues(func() (protoreflect.FileDescriptor, error) {
	return protodesc.NewFile(fileDescriptorProto(), new(protoregistry.Files))
})

func messages() (catalog, entry protoreflect.MessageDescriptor, err error) {
	fd, err := schemaFile()
	if err != nil {
		return nil, nil, fmt.Errorf("building catalog schema: %w", err)
	}
	return fd.Messages().ByName(catalogMessage), fd.Messages().ByName(entryMessage), nil
}

// EncodeProto encodes the entries as a duby.catalog.Catalog message.
// Encoding is deterministic.
func EncodeProto(entries []Entry) ([]byte, error) {
	catalogMD, entryMD, err := messages()
	if err != nil {
		return nil, err
	}
	fields := entryMD.Fields()

	msg := dynamicpb.NewMessage(catalogMD)
	list := msg.Mutable(catalogMD.Fields().ByName("intrinsics")).List()
	for _, e := range entries {
		elem := list.NewElement()
		m := elem.Message()
		m.Set(fields.ByName("owner"), protoreflect.ValueOfString(e.Owner))
		m.Set(fields.ByName("name"), protoreflect.ValueOfString(e.Name))
		m.Set(fields.ByName("returns"), protoreflect.ValueOfString(e.Returns))
		params := m.Mutable(fields.ByName("params")).List()
		for _, p := range e.Params {
			params.Append(protoreflect.ValueOfString(p))
		}
		list.Append(elem)
	}
	return proto.MarshalOptions{Deterministic: true}.Marshal(msg)
}

// DecodeProto parses a message written by EncodeProto.
func DecodeProto(data []byte) ([]Entry, error) {
	catalogMD, entryMD, err := messages()
	if err != nil {
		return nil, err
	}
	fields := entryMD.Fields()

	msg := dynamicpb.NewMessage(catalogMD)
	if err := proto.Unmarshal(data, msg); err != nil {
		return nil, fmt.Errorf("decoding catalog: %w", err)
	}
	list := msg.Get(catalogMD.Fields().ByName("intrinsics")).List()
	out := make([]Entry, 0, list.Len())
	for i := 0; i < list.Len(); i++ {
		m := list.Get(i).Message()
		e := Entry{
			Owner:   m.Get(fields.ByName("owner")).String(),
			Name:    m.Get(fields.ByName("name")).String(),
			Returns: m.Get(fields.ByName("returns")).String(),
		}
		params := m.Get(fields.ByName("params")).List()
		for j := 0; j < params.Len(); j++ {
			e.Params = append(e.Params, params.Get(j).String())
		}
		out = append(out, e)
	}
	return out, nil
}

// Schema renders the .proto source of the catalog messages.
func Schema() (string, error) {
	fd, err := schemaFile()
	if err != nil {
		return "", fmt.Errorf("building catalog schema: %w", err)
	}
	wrapped, err := desc.WrapFile(fd)
	if err != nil {
		return "", err
	}
	p := protoprint.Printer{}
	return p.PrintProtoToString(wrapped)
}
