package groceriesv1

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
)

func invoke[Resp any](ctx context.Context, cc grpc.ClientConnInterface, service, method string, in any, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{CallJSON()}, opts...)
	if err := cc.Invoke(ctx, "/"+service+"/"+method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// CatalogClient talks to either catalog service.
type CatalogClient struct {
	cc      grpc.ClientConnInterface
	service string
}

func (c *CatalogClient) Create(ctx context.Context, in *CreateRequest, opts ...grpc.CallOption) (*NamedEntity, error) {
	return invoke[NamedEntity](ctx, c.cc, c.service, "Create", in, opts)
}

func (c *CatalogClient) List(ctx context.Context, in *ListRequest, opts ...grpc.CallOption) (*ListResponse, error) {
	return invoke[ListResponse](ctx, c.cc, c.service, "List", in, opts)
}

func (c *CatalogClient) Get(ctx context.Context, in *GetRequest, opts ...grpc.CallOption) (*NamedEntity, error) {
	return invoke[NamedEntity](ctx, c.cc, c.service, "Get", in, opts)
}

func (c *CatalogClient) Update(ctx context.Context, in *UpdateRequest, opts ...grpc.CallOption) (*NamedEntity, error) {
	return invoke[NamedEntity](ctx, c.cc, c.service, "Update", in, opts)
}

func (c *CatalogClient) Delete(ctx context.Context, in *DeleteRequest, opts ...grpc.CallOption) (*emptypb.Empty, error) {
	return invoke[emptypb.Empty](ctx, c.cc, c.service, "Delete", in, opts)
}

func (c *CatalogClient) Suggest(ctx context.Context, in *SuggestRequest, opts ...grpc.CallOption) (*ListResponse, error) {
	return invoke[ListResponse](ctx, c.cc, c.service, "Suggest", in, opts)
}

type ItemsClient struct {
	CatalogClient
}

func NewItemsClient(cc grpc.ClientConnInterface) *ItemsClient {
	return &ItemsClient{CatalogClient{cc: cc, service: ItemsServiceName}}
}

func (c *ItemsClient) History(ctx context.Context, in *ItemRequest, opts ...grpc.CallOption) (*HistoryResponse, error) {
	return invoke[HistoryResponse](ctx, c.cc, c.service, "History", in, opts)
}

func (c *ItemsClient) Compare(ctx context.Context, in *ItemRequest, opts ...grpc.CallOption) (*CompareResponse, error) {
	return invoke[CompareResponse](ctx, c.cc, c.service, "Compare", in, opts)
}

func NewStoresClient(cc grpc.ClientConnInterface) *CatalogClient {
	return &CatalogClient{cc: cc, service: StoresServiceName}
}

type ReceiptsClient struct {
	cc grpc.ClientConnInterface
}

func NewReceiptsClient(cc grpc.ClientConnInterface) *ReceiptsClient {
	return &ReceiptsClient{cc: cc}
}

func (c *ReceiptsClient) Upload(ctx context.Context, in *UploadRequest, opts ...grpc.CallOption) (*UploadResponse, error) {
	return invoke[UploadResponse](ctx, c.cc, ReceiptsServiceName, "Upload", in, opts)
}

func (c *ReceiptsClient) Normalize(ctx context.Context, in *NormalizeRequest, opts ...grpc.CallOption) (*Proposal, error) {
	return invoke[Proposal](ctx, c.cc, ReceiptsServiceName, "Normalize", in, opts)
}

func (c *ReceiptsClient) Confirm(ctx context.Context, in *ConfirmRequest, opts ...grpc.CallOption) (*PurchaseRecord, error) {
	return invoke[PurchaseRecord](ctx, c.cc, ReceiptsServiceName, "Confirm", in, opts)
}

type ExportClient struct {
	cc grpc.ClientConnInterface
}

func NewExportClient(cc grpc.ClientConnInterface) *ExportClient {
	return &ExportClient{cc: cc}
}

func (c *ExportClient) ExportRecords(ctx context.Context, in *ExportRequest, opts ...grpc.CallOption) (*ExportResponse, error) {
	return invoke[ExportResponse](ctx, c.cc, ExportServiceName, "ExportRecords", in, opts)
}

type OwnersClient struct {
	cc grpc.ClientConnInterface
}

func NewOwnersClient(cc grpc.ClientConnInterface) *OwnersClient {
	return &OwnersClient{cc: cc}
}

func (c *OwnersClient) DeleteAllData(ctx context.Context, in *DeleteAllDataRequest, opts ...grpc.CallOption) (*DeleteAllDataResponse, error) {
	return invoke[DeleteAllDataResponse](ctx, c.cc, OwnersServiceName, "DeleteAllData", in, opts)
}
