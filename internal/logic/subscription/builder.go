package subscription

import (
	"fmt"
	"strings"

	pb "github.com/rpcpool/yellowstone-grpc/examples/golang/proto"
)

// FilterSpec 是一组命名过滤规则。字段是否生效取决于订阅的实体类型：
// 交易类过滤用 AccountInclude/Exclude 与 vote/failed 开关，
// 账户类过滤用 AccountInclude（账户本身）、Owner 与数据判别前缀。
type FilterSpec struct {
	AccountInclude []string // 交易：account_include；账户：account 列表
	AccountExclude []string // 交易：account_exclude
	Owner          []string // 账户：owner program 列表

	// AccountsRequired 为 true 时 AccountInclude 作为 account_required 下发，
	// 要求列表内地址全部出现在交易里（典型用法：锁定签名者集合）。
	AccountsRequired bool

	IncludeVote   bool // 是否包含投票交易
	IncludeFailed bool // 是否包含失败交易

	// Discriminators 是账户数据判别前缀列表，按 offset 0 做 memcmp 过滤。
	Discriminators [][]byte
}

// Filters 按实体类型组织命名过滤器。过滤器名称原样透传，
// 推送回来的 update.Filters 会携带命中的名称，调用方据此归类。
type Filters struct {
	Accounts     map[string]FilterSpec
	Transactions map[string]FilterSpec
	TxStatuses   map[string]FilterSpec
	Slots        map[string]FilterSpec
	Blocks       map[string]FilterSpec
	BlocksMeta   map[string]FilterSpec
	Entries      map[string]FilterSpec
}

// Option 对构建好的请求做追加设置（ping、from_slot 等）。
type Option func(*pb.SubscribeRequest)

// WithPing 让服务端响应应用层 ping（SubscribeRequest.ping）。
func WithPing(id int32) Option {
	return func(req *pb.SubscribeRequest) {
		req.Ping = &pb.SubscribeRequestPing{Id: id}
	}
}

// WithFromSlot 从指定 slot 开始回放历史数据（服务端只保留近期窗口）。
func WithFromSlot(slot uint64) Option {
	return func(req *pb.SubscribeRequest) {
		req.FromSlot = &slot
	}
}

// Build 把命名过滤器与 commitment 组装为订阅请求。纯构造，无 I/O，
// 不校验过滤内容本身的语义（非法地址由服务端拒绝）。空请求合法，只是不会推送数据。
func Build(f Filters, commitment pb.CommitmentLevel, opts ...Option) *pb.SubscribeRequest {
	req := &pb.SubscribeRequest{Commitment: &commitment}

	if len(f.Accounts) > 0 {
		req.Accounts = make(map[string]*pb.SubscribeRequestFilterAccounts, len(f.Accounts))
		for name, spec := range f.Accounts {
			req.Accounts[name] = buildAccountsFilter(spec)
		}
	}
	if len(f.Transactions) > 0 {
		req.Transactions = make(map[string]*pb.SubscribeRequestFilterTransactions, len(f.Transactions))
		for name, spec := range f.Transactions {
			req.Transactions[name] = buildTransactionsFilter(spec)
		}
	}
	if len(f.TxStatuses) > 0 {
		req.TransactionsStatus = make(map[string]*pb.SubscribeRequestFilterTransactions, len(f.TxStatuses))
		for name, spec := range f.TxStatuses {
			req.TransactionsStatus[name] = buildTransactionsFilter(spec)
		}
	}
	if len(f.Slots) > 0 {
		req.Slots = make(map[string]*pb.SubscribeRequestFilterSlots, len(f.Slots))
		for name := range f.Slots {
			req.Slots[name] = &pb.SubscribeRequestFilterSlots{}
		}
	}
	if len(f.Blocks) > 0 {
		req.Blocks = make(map[string]*pb.SubscribeRequestFilterBlocks, len(f.Blocks))
		for name, spec := range f.Blocks {
			req.Blocks[name] = &pb.SubscribeRequestFilterBlocks{
				AccountInclude: spec.AccountInclude,
			}
		}
	}
	if len(f.BlocksMeta) > 0 {
		req.BlocksMeta = make(map[string]*pb.SubscribeRequestFilterBlocksMeta, len(f.BlocksMeta))
		for name := range f.BlocksMeta {
			req.BlocksMeta[name] = &pb.SubscribeRequestFilterBlocksMeta{}
		}
	}
	if len(f.Entries) > 0 {
		req.Entry = make(map[string]*pb.SubscribeRequestFilterEntry, len(f.Entries))
		for name := range f.Entries {
			req.Entry[name] = &pb.SubscribeRequestFilterEntry{}
		}
	}

	for _, opt := range opts {
		opt(req)
	}
	return req
}

func buildAccountsFilter(spec FilterSpec) *pb.SubscribeRequestFilterAccounts {
	filter := &pb.SubscribeRequestFilterAccounts{
		Account: spec.AccountInclude,
		Owner:   spec.Owner,
	}
	for _, d := range spec.Discriminators {
		filter.Filters = append(filter.Filters, &pb.SubscribeRequestFilterAccountsFilter{
			Filter: &pb.SubscribeRequestFilterAccountsFilter_Memcmp{
				Memcmp: &pb.SubscribeRequestFilterAccountsFilterMemcmp{
					Offset: 0,
					Data:   &pb.SubscribeRequestFilterAccountsFilterMemcmp_Bytes{Bytes: d},
				},
			},
		})
	}
	return filter
}

func buildTransactionsFilter(spec FilterSpec) *pb.SubscribeRequestFilterTransactions {
	filter := &pb.SubscribeRequestFilterTransactions{
		AccountExclude: spec.AccountExclude,
		Vote:           boolPtr(spec.IncludeVote),
		Failed:         boolPtr(spec.IncludeFailed),
	}
	if spec.AccountsRequired {
		filter.AccountRequired = spec.AccountInclude
	} else {
		filter.AccountInclude = spec.AccountInclude
	}
	return filter
}

// ParseCommitment 解析配置里的 commitment 字符串，空串默认 PROCESSED（最低延迟）。
func ParseCommitment(s string) (pb.CommitmentLevel, error) {
	switch strings.ToLower(s) {
	case "", "processed":
		return pb.CommitmentLevel_PROCESSED, nil
	case "confirmed":
		return pb.CommitmentLevel_CONFIRMED, nil
	case "finalized":
		return pb.CommitmentLevel_FINALIZED, nil
	default:
		return 0, fmt.Errorf("unknown commitment level %q", s)
	}
}

func boolPtr(b bool) *bool {
	return &b
}
