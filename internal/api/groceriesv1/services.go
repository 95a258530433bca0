package groceriesv1

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
)

const (
	ItemsServiceName    = "groceries.v1.Items"
	StoresServiceName   = "groceries.v1.Stores"
	ReceiptsServiceName = "groceries.v1.Receipts"
	ExportServiceName   = "groceries.v1.Export"
	OwnersServiceName   = "groceries.v1.Owners"
)

// CatalogServer is implemented by both the item and the store catalogs.
type CatalogServer interface {
	Create(context.Context, *CreateRequest) (*NamedEntity, error)
	List(context.Context, *ListRequest) (*ListResponse, error)
	Get(context.Context, *GetRequest) (*NamedEntity, error)
	Update(context.Context, *UpdateRequest) (*NamedEntity, error)
	Delete(context.Context, *DeleteRequest) (*emptypb.Empty, error)
	Suggest(context.Context, *SuggestRequest) (*ListResponse, error)
}

type ItemsServer interface {
	CatalogServer
	History(context.Context, *ItemRequest) (*HistoryResponse, error)
	Compare(context.Context, *ItemRequest) (*CompareResponse, error)
}

type StoresServer interface {
	CatalogServer
}

type ReceiptsServer interface {
	Upload(context.Context, *UploadRequest) (*UploadResponse, error)
	Normalize(context.Context, *NormalizeRequest) (*Proposal, error)
	Confirm(context.Context, *ConfirmRequest) (*PurchaseRecord, error)
}

type ExportServer interface {
	ExportRecords(context.Context, *ExportRequest) (*ExportResponse, error)
}

type OwnersServer interface {
	DeleteAllData(context.Context, *DeleteAllDataRequest) (*DeleteAllDataResponse, error)
}

// unary builds a method descriptor that decodes Req and calls fn.
func unary[S any, Req any, Resp any](service, method string, fn func(S, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	fullMethod := "/" + service + "/" + method
	return grpc.MethodDesc{
		MethodName: method,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			call := func(ctx context.Context, req any) (any, error) {
				out, err := fn(srv.(S), ctx, req.(*Req))
				if err != nil {
					return nil, err
				}
				return out, nil
			}
			if interceptor == nil {
				return call(ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
			return interceptor(ctx, in, info, call)
		},
	}
}

func catalogMethods(service string) []grpc.MethodDesc {
	return []grpc.MethodDesc{
		unary(service, "Create", CatalogServer.Create),
		unary(service, "List", CatalogServer.List),
		unary(service, "Get", CatalogServer.Get),
		unary(service, "Update", CatalogServer.Update),
		unary(service, "Delete", CatalogServer.Delete),
		unary(service, "Suggest", CatalogServer.Suggest),
	}
}

var ItemsServiceDesc = grpc.ServiceDesc{
	ServiceName: ItemsServiceName,
	HandlerType: (*ItemsServer)(nil),
	Methods: append(catalogMethods(ItemsServiceName),
		unary(ItemsServiceName, "History", ItemsServer.History),
		unary(ItemsServiceName, "Compare", ItemsServer.Compare),
	),
	Metadata: "groceries/v1/items",
}

var StoresServiceDesc = grpc.ServiceDesc{
	ServiceName: StoresServiceName,
	HandlerType: (*StoresServer)(nil),
	Methods:     catalogMethods(StoresServiceName),
	Metadata:    "groceries/v1/stores",
}

var ReceiptsServiceDesc = grpc.ServiceDesc{
	ServiceName: ReceiptsServiceName,
	HandlerType: (*ReceiptsServer)(nil),
	Methods: []grpc.MethodDesc{
		unary(ReceiptsServiceName, "Upload", ReceiptsServer.Upload),
		unary(ReceiptsServiceName, "Normalize", ReceiptsServer.Normalize),
		unary(ReceiptsServiceName, "Confirm", ReceiptsServer.Confirm),
	},
	Metadata: "groceries/v1/receipts",
}

var ExportServiceDesc = grpc.ServiceDesc{
	ServiceName: ExportServiceName,
	HandlerType: (*ExportServer)(nil),
	Methods: []grpc.MethodDesc{
		unary(ExportServiceName, "ExportRecords", ExportServer.ExportRecords),
	},
	Metadata: "groceries/v1/export",
}

var OwnersServiceDesc = grpc.ServiceDesc{
	ServiceName: OwnersServiceName,
	HandlerType: (*OwnersServer)(nil),
	Methods: []grpc.MethodDesc{
		unary(OwnersServiceName, "DeleteAllData", OwnersServer.DeleteAllData),
	},
	Metadata: "groceries/v1/owners",
}

func RegisterItemsServer(s grpc.ServiceRegistrar, srv ItemsServer) {
	s.RegisterService(&ItemsServiceDesc, srv)
}

func RegisterStoresServer(s grpc.ServiceRegistrar, srv StoresServer) {
	s.RegisterService(&StoresServiceDesc, srv)
}

func RegisterReceiptsServer(s grpc.ServiceRegistrar, srv ReceiptsServer) {
	s.RegisterService(&ReceiptsServiceDesc, srv)
}

func RegisterExportServer(s grpc.ServiceRegistrar, srv ExportServer) {
	s.RegisterService(&ExportServiceDesc, srv)
}

func RegisterOwnersServer(s grpc.ServiceRegistrar, srv OwnersServer) {
	s.RegisterService(&OwnersServiceDesc, srv)
}
